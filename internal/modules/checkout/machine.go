// README: The checkout state machine; transport-neutral, drives both paths.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"salonbot/internal/geo"
	"salonbot/internal/modules/cart"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

// Message tags under which sent message ids are recorded for later deletion.
const (
	tagSummary     = "summary"
	tagGeo         = "geo"
	tagConfirmAddr = "confirm_address"
	tagApartment   = "apartment"
	tagPhone       = "phone"
)

const (
	msgChooseDelivery  = "Выберите способ доставки:"
	msgAskLocation     = "Пожалуйста, отправьте геолокацию для расчёта стоимости доставки ⬇️"
	msgSalonNoCoords   = "Ошибка: координаты салона не заданы."
	msgConfirmAddress  = "Вы находитесь по адресу:\n<b>%s</b>\nВсё верно?"
	msgEnterManually   = "Пожалуйста, введите адрес вручную:"
	msgBadAddress      = "Пожалуйста, введите корректный адрес."
	msgAskApartment    = "Пожалуйста, укажите номер квартиры (или подъезда, офиса):"
	msgAskPickupTime   = "Когда вам будет удобно забрать заказ?"
	msgBadPickupSlot   = "Пожалуйста, выберите время из предложенных вариантов."
	msgAskPhone        = "Пожалуйста, введите ваш номер телефона или отправьте контакт кнопкой ниже 👇"
	msgPhoneReceived   = "Спасибо, номер получен!"
	msgCheckAndConfirm = "Проверьте все данные и подтвердите заказ!"
	msgOrderAccepted   = "Спасибо! Ваш заказ принят 👍"
	msgEmptyCart       = "Ваша корзина пуста или не выбран салон. Заказ не оформлен."
	msgFreePlanLimit   = "Вы достигли лимита бесплатного тарифа (%d заказов). Чтобы продолжить приём заказов, продлите подписку."
	msgNoSalon         = "Не удалось определить салон. Пожалуйста, выберите салон."
	msgRestart         = "Оформление заказа прервано. Начните заново из корзины."
	msgPickupNoAddress = "Адрес салона не указан"
	msgOpenOnMap       = "Открыть на карте"
)

// clearKeyboardText is an invisible character; sending it is the only way to
// remove a reply keyboard without leaving a visible message.
const clearKeyboardText = "\u2063"

// PickupSlots are the ready-time offsets, in minutes, offered on the pickup
// path.
var PickupSlots = []int{10, 20, 30, 45, 60}

// Keyboard identifies which reply markup the transport attaches to a message.
// The machine never builds Telegram markup itself.
type Keyboard int

const (
	KbNone Keyboard = iota
	KbDelivery
	KbGeo
	KbConfirmAddress
	KbPickupTime
	KbPhone
	KbConfirmOrder
	KbRemove
)

// Msg is one outbound message the transport should send. A non-empty Tag
// tells the transport to record the sent message id in the session under
// that tag.
type Msg struct {
	Text      string
	HTML      bool
	NoPreview bool
	Keyboard  Keyboard
	Tag       string
}

// Reply is the side-effect plan produced by one transition: message ids to
// delete, messages to send, and whether the session is finished. ShowCart
// asks the transport to re-render the cart screen after an abandoned
// checkout.
type Reply struct {
	Delete   []int
	Msgs     []Msg
	End      bool
	ShowCart bool
}

// CartReader is the slice of the cart store the machine needs.
type CartReader interface {
	List(ctx context.Context, membershipID int64) ([]cart.Item, error)
	Clear(ctx context.Context, membershipID int64) error
}

type SalonReader interface {
	GetByID(ctx context.Context, id int64) (*salon.Salon, error)
}

type Directory interface {
	GetMembership(ctx context.Context, id int64) (*user.Membership, error)
	MRUMembership(ctx context.Context, tgUserID int64) (*user.Membership, error)
	SetPhone(ctx context.Context, membershipID int64, phone string) error
}

type OrderService interface {
	Create(ctx context.Context, cmd order.CreateCommand) (*order.Order, error)
	CountBySalon(ctx context.Context, salonID int64) (int, error)
}

// Notifier delivers the new-order notification to the salon group chat.
// Delivery is best effort; implementations log failures and never return
// them.
type Notifier interface {
	NotifyOrder(ctx context.Context, groupChatID int64, text string, customer *user.Membership)
}

type Deps struct {
	Carts    CartReader
	Salons   SalonReader
	Users    Directory
	Orders   OrderService
	Geocoder geo.Geocoder
	Notifier Notifier
	Log      *logrus.Entry
}

// Machine runs the checkout conversation. Each exported method is one
// trigger: it validates the current state, mutates the session and returns
// the messages to send. Out-of-order triggers degrade to a restart prompt
// instead of an error; Telegram conversations get interrupted and re-entered
// at any point.
type Machine struct {
	carts    CartReader
	salons   SalonReader
	users    Directory
	orders   OrderService
	geocoder geo.Geocoder
	notifier Notifier
	log      *logrus.Entry
	now      func() time.Time
}

func NewMachine(d Deps) *Machine {
	return &Machine{
		carts:    d.Carts,
		salons:   d.Salons,
		users:    d.Users,
		orders:   d.Orders,
		geocoder: d.Geocoder,
		notifier: d.Notifier,
		log:      d.Log,
		now:      time.Now,
	}
}

func restartReply() Reply {
	return Reply{End: true, Msgs: []Msg{{Text: msgRestart}}}
}

// Start enters the flow from the cart screen. The active membership comes
// from the session when the cart screen set it, otherwise from the user's
// most recently used salon.
func (m *Machine) Start(ctx context.Context, s *Session) (Reply, error) {
	if s.MembershipID == 0 {
		mem, err := m.users.MRUMembership(ctx, s.TgUserID)
		if errors.Is(err, user.ErrNotFound) {
			return Reply{End: true, Msgs: []Msg{{Text: msgNoSalon}}}, nil
		}
		if err != nil {
			return Reply{}, err
		}
		s.MembershipID = mem.ID
		s.SalonID = mem.SalonID
	}
	s.resetDelivery()
	s.advance(StateChoosingDelivery)

	sum, err := m.summary(ctx, s)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Msgs: []Msg{{
		Text:      sum + "\n\n" + msgChooseDelivery,
		HTML:      true,
		NoPreview: true,
		Keyboard:  KbDelivery,
		Tag:       tagSummary,
	}}}, nil
}

// ChooseCourier resets any stale delivery fields from a previous attempt and
// asks for a live location.
func (m *Machine) ChooseCourier(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateChoosingDelivery {
		return restartReply(), nil
	}
	s.resetDelivery()
	s.Delivery = order.DeliveryCourier
	s.advance(StateEnteringAddress)
	return Reply{Msgs: []Msg{{Text: msgAskLocation, Keyboard: KbGeo, Tag: tagGeo}}}, nil
}

// Location handles a shared geolocation: distance and delivery cost from the
// salon coordinates, address via reverse geocoding with a coordinate-literal
// fallback. Without salon coordinates the step surfaces an error and stays
// put.
func (m *Machine) Location(ctx context.Context, s *Session, lat, lon float64) (Reply, error) {
	if s.State != StateEnteringAddress {
		return restartReply(), nil
	}
	sal, err := m.salons.GetByID(ctx, s.SalonID)
	if err != nil {
		return Reply{}, err
	}
	loc := sal.Location()
	if loc == nil {
		return Reply{Msgs: []Msg{{Text: msgSalonNoCoords}}}, nil
	}

	distance := geo.HaversineKm(loc.Lat, loc.Lon, lat, lon)
	cost := geo.DeliveryCost(distance)

	// The geocoder is optional; without one every address degrades to the
	// coordinate literal.
	var addr string
	if m.geocoder != nil {
		var gerr error
		addr, gerr = m.geocoder.Reverse(ctx, lat, lon)
		if gerr != nil {
			m.log.WithError(gerr).Warn("reverse geocoding failed")
		}
	}
	if addr == "" {
		addr = geo.CoordinateFallback(lat, lon)
	}

	s.Address = addr
	s.DeliveryCost = cost
	s.DistanceKm = &distance
	s.Lat, s.Lon = &lat, &lon
	s.advance(StateConfirmingAddress)

	return Reply{
		Delete: s.popMsgs(tagGeo),
		Msgs: []Msg{{
			Text:     fmt.Sprintf(msgConfirmAddress, addr),
			HTML:     true,
			Keyboard: KbConfirmAddress,
			Tag:      tagConfirmAddr,
		}},
	}, nil
}

// AddressText stores a manually typed address verbatim. No geocoding and no
// cost computation happen here; a cost from an earlier shared location is
// kept.
func (m *Machine) AddressText(ctx context.Context, s *Session, text string) (Reply, error) {
	if s.State != StateEnteringAddress {
		return restartReply(), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Msgs: []Msg{{Text: msgBadAddress}}}, nil
	}
	s.Address = text
	s.advance(StateEnteringApartment)
	return Reply{
		Delete: s.popMsgs(tagGeo),
		Msgs:   []Msg{{Text: msgAskApartment, Keyboard: KbRemove, Tag: tagApartment}},
	}, nil
}

// AddressOK accepts the geocoded address and moves on to the apartment step.
func (m *Machine) AddressOK(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateConfirmingAddress {
		return restartReply(), nil
	}
	s.advance(StateEnteringApartment)
	return Reply{
		Delete: s.popMsgs(tagConfirmAddr),
		Msgs:   []Msg{{Text: msgAskApartment, Keyboard: KbRemove, Tag: tagApartment}},
	}, nil
}

// AddressManual discards the geocoded address and returns to manual entry.
func (m *Machine) AddressManual(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateConfirmingAddress {
		return restartReply(), nil
	}
	s.Address = ""
	s.advance(StateEnteringAddress)
	return Reply{
		Delete: s.popMsgs(tagConfirmAddr),
		Msgs:   []Msg{{Text: msgEnterManually}},
	}, nil
}

// Apartment records the apartment/suite qualifier and asks for the phone.
// An empty message leaves the address unchanged.
func (m *Machine) Apartment(ctx context.Context, s *Session, text string) (Reply, error) {
	if s.State != StateEnteringApartment {
		return restartReply(), nil
	}
	if apt := strings.TrimSpace(text); apt != "" {
		s.Apartment = apt
	}
	s.PhoneBack = backApartment
	s.advance(StateEnteringPhone)
	return Reply{
		Delete: s.popMsgs(tagApartment),
		Msgs:   []Msg{{Text: msgAskPhone, Keyboard: KbPhone, Tag: tagPhone}},
	}, nil
}

// BackToDelivery handles the back button during address entry: partial
// location UI messages are discarded and the delivery choice re-rendered.
func (m *Machine) BackToDelivery(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateEnteringAddress {
		return restartReply(), nil
	}
	del := s.popMsgs(tagGeo, tagSummary, tagApartment)
	s.resetDelivery()
	s.advance(StateChoosingDelivery)

	sum, err := m.summary(ctx, s)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Delete: del,
		Msgs: []Msg{
			{Text: clearKeyboardText, Keyboard: KbRemove},
			{Text: sum + "\n\n" + msgChooseDelivery, HTML: true, NoPreview: true, Keyboard: KbDelivery, Tag: tagSummary},
		},
	}, nil
}

// ChoosePickup sets pickup with zero cost. The address becomes a map link to
// the salon coordinates when they are configured, a placeholder otherwise;
// then the ready-time slot is requested.
func (m *Machine) ChoosePickup(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateChoosingDelivery {
		return restartReply(), nil
	}
	sal, err := m.salons.GetByID(ctx, s.SalonID)
	if err != nil {
		return Reply{}, err
	}

	s.resetDelivery()
	s.Delivery = order.DeliveryPickup
	if loc := sal.Location(); loc != nil {
		s.Address = fmt.Sprintf(
			`<a href="https://maps.google.com/?q=%v,%v">%s</a>`,
			loc.Lat, loc.Lon, msgOpenOnMap,
		)
	} else {
		s.Address = msgPickupNoAddress
	}
	s.advance(StateChoosingPickupTime)

	sum, err := m.summary(ctx, s)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Delete: s.popMsgs(tagSummary),
		Msgs: []Msg{{
			Text:      sum + "\n\n" + msgAskPickupTime,
			HTML:      true,
			NoPreview: true,
			Keyboard:  KbPickupTime,
			Tag:       tagSummary,
		}},
	}, nil
}

// PickupTime converts the chosen offset to an absolute clock time in the
// salon's time zone, never the server's.
func (m *Machine) PickupTime(ctx context.Context, s *Session, minutes int) (Reply, error) {
	if s.State != StateChoosingPickupTime {
		return restartReply(), nil
	}
	valid := false
	for _, slot := range PickupSlots {
		if slot == minutes {
			valid = true
			break
		}
	}
	if !valid {
		return Reply{Msgs: []Msg{{Text: msgBadPickupSlot}}}, nil
	}

	sal, err := m.salons.GetByID(ctx, s.SalonID)
	if err != nil {
		return Reply{}, err
	}
	ready := m.now().In(sal.TimeLocation()).Add(time.Duration(minutes) * time.Minute)
	s.PickupTime = ready.Format("15:04")
	s.PhoneBack = backDelivery
	s.advance(StateEnteringPhone)

	return Reply{Msgs: []Msg{{Text: msgAskPhone, Keyboard: KbPhone, Tag: tagPhone}}}, nil
}

// Phone accepts a contact card's number or typed text. The only validation
// is non-empty; the number is also saved to the membership profile so the
// next checkout can reuse it.
func (m *Machine) Phone(ctx context.Context, s *Session, phone string) (Reply, error) {
	if s.State != StateEnteringPhone {
		return restartReply(), nil
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return Reply{Msgs: []Msg{{Text: msgAskPhone, Keyboard: KbPhone, Tag: tagPhone}}}, nil
	}
	s.Phone = phone
	if err := m.users.SetPhone(ctx, s.MembershipID, phone); err != nil {
		m.log.WithError(err).Warn("saving phone to profile failed")
	}
	s.advance(StateConfirmingOrder)

	sum, err := m.summary(ctx, s)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Delete: s.popMsgs(tagPhone, tagSummary),
		Msgs: []Msg{
			{Text: msgPhoneReceived, Keyboard: KbRemove},
			{Text: sum + "\n\n" + msgCheckAndConfirm, HTML: true, NoPreview: true, Keyboard: KbConfirmOrder, Tag: tagSummary},
		},
	}, nil
}

// PhoneBack routes the back button on the phone step: to the apartment step
// with the address preserved, or all the way back to the delivery choice
// with delivery fields reset.
func (m *Machine) PhoneBack(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateEnteringPhone {
		return restartReply(), nil
	}
	del := s.popMsgs(tagPhone, tagSummary)

	if s.PhoneBack == backApartment {
		s.PhoneBack = ""
		s.Apartment = ""
		s.advance(StateEnteringApartment)
		return Reply{
			Delete: del,
			Msgs: []Msg{
				{Text: clearKeyboardText, Keyboard: KbRemove},
				{Text: msgAskApartment, Tag: tagApartment},
			},
		}, nil
	}

	s.resetDelivery()
	s.advance(StateChoosingDelivery)
	sum, err := m.summary(ctx, s)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Delete: del,
		Msgs: []Msg{
			{Text: clearKeyboardText, Keyboard: KbRemove},
			{Text: sum + "\n\n" + msgChooseDelivery, HTML: true, NoPreview: true, Keyboard: KbDelivery, Tag: tagSummary},
		},
	}, nil
}

// BackToPhone returns from the confirmation screen to the phone step.
func (m *Machine) BackToPhone(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateConfirmingOrder {
		return restartReply(), nil
	}
	s.advance(StateEnteringPhone)
	return Reply{
		Delete: s.popMsgs(tagSummary),
		Msgs:   []Msg{{Text: msgAskPhone, Keyboard: KbPhone, Tag: tagPhone}},
	}, nil
}

// Confirm finalizes the order. The live cart is re-fetched, the free-plan
// order limit enforced, the order persisted with its line snapshot in one
// transaction, the group chat notified and the cart cleared. Any business
// refusal clears the session so the user is never stuck.
func (m *Machine) Confirm(ctx context.Context, s *Session) (Reply, error) {
	if s.State != StateConfirmingOrder {
		return restartReply(), nil
	}
	items, err := m.carts.List(ctx, s.MembershipID)
	if err != nil {
		return Reply{}, err
	}
	if len(items) == 0 {
		return Reply{End: true, Msgs: []Msg{{Text: msgEmptyCart}}}, nil
	}

	sal, err := m.salons.GetByID(ctx, s.SalonID)
	if err != nil {
		return Reply{}, err
	}
	if sal.FreePlan {
		count, err := m.orders.CountBySalon(ctx, s.SalonID)
		if err != nil {
			return Reply{}, err
		}
		if count >= sal.OrderLimit {
			return Reply{End: true, Msgs: []Msg{{Text: fmt.Sprintf(msgFreePlanLimit, sal.OrderLimit)}}}, nil
		}
	}

	mem, err := m.users.GetMembership(ctx, s.MembershipID)
	if err != nil {
		return Reply{}, err
	}
	name := mem.DisplayName()
	if name == "" {
		name = s.TgName
	}

	_, err = m.orders.Create(ctx, order.CreateCommand{
		MembershipID:  s.MembershipID,
		Name:          name,
		Phone:         s.Phone,
		Address:       s.FullAddress(),
		DeliveryType:  s.Delivery,
		PaymentMethod: order.DefaultPaymentMethod(s.Delivery),
		DeliveryCost:  s.DeliveryCost,
		Items:         items,
	})
	if err != nil {
		return Reply{}, err
	}

	if sal.GroupChatID != nil {
		text := order.Summary(items, m.view(s, sal.Currency), true)
		m.notifier.NotifyOrder(ctx, *sal.GroupChatID, text, mem)
	}

	if err := m.carts.Clear(ctx, s.MembershipID); err != nil {
		m.log.WithError(err).Error("clearing cart after order failed")
	}
	return Reply{End: true, Msgs: []Msg{{Text: msgOrderAccepted}}}, nil
}

// Abandon leaves checkout entirely; the transport re-renders the cart.
func (m *Machine) Abandon(ctx context.Context, s *Session) (Reply, error) {
	return Reply{
		Delete:   s.popMsgs(tagSummary, tagGeo, tagConfirmAddr, tagApartment, tagPhone),
		End:      true,
		ShowCart: true,
	}, nil
}

// summary renders the customer-facing order summary from the live cart and
// the session's delivery fields.
func (m *Machine) summary(ctx context.Context, s *Session) (string, error) {
	items, err := m.carts.List(ctx, s.MembershipID)
	if err != nil {
		return "", err
	}
	sal, err := m.salons.GetByID(ctx, s.SalonID)
	if err != nil {
		return "", err
	}
	return order.Summary(items, m.view(s, sal.Currency), false), nil
}

func (m *Machine) view(s *Session, currency string) order.SummaryView {
	return order.SummaryView{
		DeliveryType: s.Delivery,
		DeliveryCost: s.DeliveryCost,
		Address:      s.FullAddress(),
		DistanceKm:   s.DistanceKm,
		Phone:        s.Phone,
		PickupTime:   s.PickupTime,
		Currency:     currency,
	}
}
