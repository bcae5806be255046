// README: Callback data encoding; every button press decodes to one typed command.
package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"salonbot/internal/modules/order"
)

var ErrUnknownCommand = errors.New("unknown callback command")

// Command is a decoded button press. Callback data is parsed exactly once at
// the boundary; handlers switch on the closed set of variants below instead
// of re-parsing strings.
type Command interface {
	isCommand()
}

type (
	StartOrderCmd    struct{}
	CourierCmd       struct{}
	PickupCmd        struct{}
	AddressOKCmd     struct{}
	AddressManualCmd struct{}
	ConfirmOrderCmd  struct{}
	BackToPhoneCmd   struct{}
	BackToCartCmd    struct{}
	PickupTimeCmd    struct{ Minutes int }

	ShowCategoriesCmd struct{}
	ShowCategoryCmd   struct{ CategoryID int64 }
	AddToCartCmd      struct{ ProductID int64 }
	ReduceCartCmd     struct{ ProductID int64 }
	ShowCartCmd       struct{}
	ChooseSalonCmd    struct{ SalonID int64 }

	AdminOrdersCmd      struct{}
	AdminOrderCmd       struct{ OrderID int64 }
	AdminOrderStatusCmd struct {
		OrderID int64
		Status  order.Status
	}
)

func (StartOrderCmd) isCommand()       {}
func (CourierCmd) isCommand()          {}
func (PickupCmd) isCommand()           {}
func (AddressOKCmd) isCommand()        {}
func (AddressManualCmd) isCommand()    {}
func (ConfirmOrderCmd) isCommand()     {}
func (BackToPhoneCmd) isCommand()      {}
func (BackToCartCmd) isCommand()       {}
func (PickupTimeCmd) isCommand()       {}
func (ShowCategoriesCmd) isCommand()   {}
func (ShowCategoryCmd) isCommand()     {}
func (AddToCartCmd) isCommand()        {}
func (ReduceCartCmd) isCommand()       {}
func (ShowCartCmd) isCommand()         {}
func (ChooseSalonCmd) isCommand()      {}
func (AdminOrdersCmd) isCommand()      {}
func (AdminOrderCmd) isCommand()       {}
func (AdminOrderStatusCmd) isCommand() {}

// Encoders, used by the keyboard builders.

func encodePickupTime(minutes int) string    { return fmt.Sprintf("pickup_time:%d", minutes) }
func encodeCategory(categoryID int64) string { return fmt.Sprintf("category:%d", categoryID) }
func encodeAdd(productID int64) string       { return fmt.Sprintf("add:%d", productID) }
func encodeReduce(productID int64) string    { return fmt.Sprintf("reduce:%d", productID) }
func encodeSalon(salonID int64) string       { return fmt.Sprintf("salon:%d", salonID) }
func encodeOrder(orderID int64) string       { return fmt.Sprintf("order:%d", orderID) }

func encodeOrderStatus(orderID int64, to order.Status) string {
	return fmt.Sprintf("status:%d:%s", orderID, to)
}

// DecodeCommand parses callback data into a typed command.
func DecodeCommand(data string) (Command, error) {
	switch data {
	case "start_order":
		return StartOrderCmd{}, nil
	case "delivery_courier":
		return CourierCmd{}, nil
	case "delivery_pickup":
		return PickupCmd{}, nil
	case "address_ok":
		return AddressOKCmd{}, nil
	case "address_manual":
		return AddressManualCmd{}, nil
	case "confirm_order":
		return ConfirmOrderCmd{}, nil
	case "back_to_phone":
		return BackToPhoneCmd{}, nil
	case "back_to_cart":
		return BackToCartCmd{}, nil
	case "categories":
		return ShowCategoriesCmd{}, nil
	case "cart":
		return ShowCartCmd{}, nil
	case "orders":
		return AdminOrdersCmd{}, nil
	}

	parts := strings.Split(data, ":")
	switch {
	case len(parts) == 2 && parts[0] == "pickup_time":
		minutes, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return PickupTimeCmd{Minutes: minutes}, nil
	case len(parts) == 2 && parts[0] == "category":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return ShowCategoryCmd{CategoryID: id}, nil
	case len(parts) == 2 && parts[0] == "add":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return AddToCartCmd{ProductID: id}, nil
	case len(parts) == 2 && parts[0] == "reduce":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return ReduceCartCmd{ProductID: id}, nil
	case len(parts) == 2 && parts[0] == "salon":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return ChooseSalonCmd{SalonID: id}, nil
	case len(parts) == 2 && parts[0] == "order":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return AdminOrderCmd{OrderID: id}, nil
	case len(parts) == 3 && parts[0] == "status":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, ErrUnknownCommand
		}
		return AdminOrderStatusCmd{OrderID: id, Status: order.Status(parts[2])}, nil
	}
	return nil, ErrUnknownCommand
}
