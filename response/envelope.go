package response

import (
	"fmt"
	"strings"
)

// FaultError is a SOAP Fault returned by the server.
type FaultError struct {
	Code   string
	String string
	// Detail is the errorstring of the fault detail, when present.
	Detail string
	// ErrorCode is the server error code of the fault detail, e.g. "0x82000006".
	ErrorCode string
}

func (e *FaultError) Error() string {
	msg := "soap fault " + e.Code + ": " + e.String
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.ErrorCode != "" {
		msg += " (" + e.ErrorCode + ")"
	}
	return msg
}

// Is reports ErrProtocol so faults classify as protocol failures.
func (e *FaultError) Is(target error) bool {
	return target == ErrProtocol
}

// Body returns the Body element of a parsed envelope.
func Body(root *Node) (*Node, error) {
	if root.Name.Local != "Envelope" {
		return nil, fmt.Errorf("%w: root element %q is not an Envelope", ErrProtocol, root.Name.Local)
	}
	body := root.Child("Body")
	if body == nil {
		return nil, fmt.Errorf("%w: envelope has no Body", ErrProtocol)
	}
	return body, nil
}

// Fault returns the fault carried by body, or nil.
func Fault(body *Node) *FaultError {
	f := body.Child("Fault")
	if f == nil {
		return nil
	}
	fe := &FaultError{}
	if c := f.Child("faultcode"); c != nil {
		fe.Code = strings.TrimSpace(c.Text)
	}
	if c := f.Child("faultstring"); c != nil {
		fe.String = strings.TrimSpace(c.Text)
	}
	if d := f.Child("detail"); d != nil {
		if c := d.FindFold("errorstring"); c != nil {
			fe.Detail = strings.TrimSpace(c.Text)
		}
		if c := d.FindFold("errorcode"); c != nil {
			fe.ErrorCode = strings.TrimSpace(c.Text)
		}
	}
	return fe
}

// Payload parses data and returns the first element inside the result of
// operation op (Envelope/Body/<op>Response/<op>Result/*).
func Payload(data []byte, op string) (*Node, error) {
	res, err := Result(data, op)
	if err != nil {
		return nil, err
	}
	if len(res.Children) == 0 {
		return nil, fmt.Errorf("%w: %s result is empty", ErrProtocol, op)
	}
	return res.Children[0], nil
}

// Result parses data and returns the <op>Result element, or the
// <op>Response element when the server omits the Result wrapper.
func Result(data []byte, op string) (*Node, error) {
	resp, err := Response(data, op)
	if err != nil {
		return nil, err
	}
	if res := resp.Child(op + "Result"); res != nil {
		return res, nil
	}
	return resp, nil
}

// Response parses data and returns the <op>Response element. Faults are
// returned as *FaultError.
func Response(data []byte, op string) (*Node, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}
	body, err := Body(root)
	if err != nil {
		return nil, err
	}
	if fe := Fault(body); fe != nil {
		return nil, fe
	}
	resp := body.Child(op + "Response")
	if resp == nil {
		return nil, fmt.Errorf("%w: body has no %sResponse", ErrProtocol, op)
	}
	return resp, nil
}

// CheckFault parses data and returns a *FaultError if it carries a fault.
// Responses without a payload of interest (DeleteList) use it for validation.
func CheckFault(data []byte, op string) error {
	_, err := Response(data, op)
	return err
}
