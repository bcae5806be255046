// README: Checkout session record, one per (chat, user) conversation.
package checkout

// Back destinations recorded before entering the phone step.
const (
	backApartment = "apartment"
	backDelivery  = "delivery"
)

// Session is the explicit record of one checkout conversation. Every field
// the flow accumulates lives here instead of an untyped state blob; the
// struct is JSON-serialized into the session store between updates.
//
// Address holds the street address without the apartment qualifier; the
// qualifier is kept in Apartment and joined by FullAddress, so going back to
// the apartment step never duplicates the suffix.
type Session struct {
	ChatID       int64          `json:"chat_id"`
	TgUserID     int64          `json:"tg_user_id"`
	TgName       string         `json:"tg_name,omitempty"`
	State        State          `json:"state"`
	MembershipID int64          `json:"membership_id,omitempty"`
	SalonID      int64          `json:"salon_id,omitempty"`
	Delivery     string         `json:"delivery,omitempty"`
	Address      string         `json:"address,omitempty"`
	Apartment    string         `json:"apartment,omitempty"`
	DeliveryCost int64          `json:"delivery_cost,omitempty"`
	DistanceKm   *float64       `json:"distance_km,omitempty"`
	Lat          *float64       `json:"lat,omitempty"`
	Lon          *float64       `json:"lon,omitempty"`
	PickupTime   string         `json:"pickup_time,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	PhoneBack    string         `json:"phone_back,omitempty"`
	MsgIDs       map[string]int `json:"msg_ids,omitempty"`
}

// FullAddress joins the street address with the apartment qualifier.
func (s *Session) FullAddress() string {
	if s.Apartment == "" {
		return s.Address
	}
	return s.Address + ", кв./офис " + s.Apartment
}

// advance moves the conversation along the transition table; an illegal move
// leaves the state untouched. The machine's trigger guards keep every call on
// a legal edge.
func (s *Session) advance(to State) {
	if CanTransition(s.State, to) {
		s.State = to
	}
}

// resetDelivery clears everything collected after the delivery choice. Stale
// fields from an abandoned attempt must not leak into a new one.
func (s *Session) resetDelivery() {
	s.Delivery = ""
	s.Address = ""
	s.Apartment = ""
	s.DeliveryCost = 0
	s.DistanceKm = nil
	s.Lat = nil
	s.Lon = nil
	s.PickupTime = ""
	s.PhoneBack = ""
}

// RecordMsg remembers a sent message id under a tag so a later step can
// delete it. The transport calls this after sending a tagged Msg.
func (s *Session) RecordMsg(tag string, msgID int) {
	if s.MsgIDs == nil {
		s.MsgIDs = make(map[string]int)
	}
	s.MsgIDs[tag] = msgID
}

// popMsgs removes the given tags from the session and returns the message
// ids that were recorded under them.
func (s *Session) popMsgs(tags ...string) []int {
	var ids []int
	for _, tag := range tags {
		if id, ok := s.MsgIDs[tag]; ok {
			ids = append(ids, id)
			delete(s.MsgIDs, tag)
		}
	}
	return ids
}
