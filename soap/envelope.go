package soap

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/smnsjas/go-splists/caml"
)

// XMLDeclaration is written before every envelope.
const XMLDeclaration = `<?xml version="1.0" encoding="utf-8"?>`

const (
	envPrefix = "SOAP-ENV"
	nsPrefix  = "ns1"
)

// ErrEnvelope is returned when an envelope cannot be serialized.
var ErrEnvelope = errors.New("invalid envelope")

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Envelope is a request under construction. The zero value is not usable;
// create one with New.
type Envelope struct {
	op      Operation
	command *caml.Element
}

// New creates an empty envelope for op.
func New(op Operation) *Envelope {
	return &Envelope{
		op:      op,
		command: caml.NewElement(nsPrefix + ":" + op.String()),
	}
}

// Operation returns the operation the envelope invokes.
func (e *Envelope) Operation() Operation {
	return e.op
}

// AddParameter appends a parameter element. An empty value produces an
// empty element.
func (e *Envelope) AddParameter(name, value string) *Envelope {
	e.command.Add(nsPrefix + ":" + name).Text = value
	return e
}

// AddIntParameter appends a numeric parameter.
func (e *Envelope) AddIntParameter(name string, value int) *Envelope {
	return e.AddParameter(name, strconv.Itoa(value))
}

// AddViewFields restricts the returned columns to names (internal names).
func (e *Envelope) AddViewFields(names []string) *Envelope {
	vf := e.command.Add(nsPrefix+":viewFields").Set("ViewFieldsOnly", "true")
	fields := vf.Add("ViewFields")
	for _, n := range names {
		fields.Add("FieldRef").Set("Name", n)
	}
	return e
}

// AddQuery embeds a <Query> element built by caml.Builder.
func (e *Envelope) AddQuery(query *caml.Element) *Envelope {
	e.command.Add(nsPrefix + ":query").Append(query)
	return e
}

// AddPaging asks the server to continue after the position token returned
// by a previous page.
func (e *Envelope) AddPaging(position string) *Envelope {
	opts := e.command.Add(nsPrefix + ":queryOptions").Add("QueryOptions")
	opts.Add("Paging").Set("ListItemCollectionPositionNext", position)
	return e
}

// AddBatch embeds a <Batch> element built by caml.Builder.
func (e *Envelope) AddBatch(batch *caml.Element) *Envelope {
	e.command.Add(nsPrefix + ":updates").Append(batch)
	return e
}

// Bytes serializes the envelope as UTF-8 text, XML declaration first.
func (e *Envelope) Bytes() ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	buf.WriteString(XMLDeclaration)
	buf.WriteString(`<` + envPrefix + `:Envelope`)
	writeNamespace(buf, envPrefix, EnvelopeNamespace)
	writeNamespace(buf, "ns0", EnvelopeNamespace)
	writeNamespace(buf, nsPrefix, ServiceNamespace)
	writeNamespace(buf, "xsi", XSINamespace)
	buf.WriteString(`><` + envPrefix + `:Body>`)

	if err := e.command.Render(buf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEnvelope, e.op, err)
	}

	buf.WriteString(`</` + envPrefix + `:Body></` + envPrefix + `:Envelope>`)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// String returns the serialized envelope, or "" if it cannot be serialized.
func (e *Envelope) String() string {
	b, err := e.Bytes()
	if err != nil {
		return ""
	}
	return string(b)
}

func writeNamespace(buf *bytes.Buffer, prefix, uri string) {
	buf.WriteString(` xmlns:`)
	buf.WriteString(prefix)
	buf.WriteString(`="`)
	buf.WriteString(uri)
	buf.WriteByte('"')
}
