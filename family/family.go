// Package family selects message vocabulary by device family name.
package family

import (
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/sonar/message"
	"github.com/temoto/sonar/message/ping1d"
	"github.com/temoto/sonar/message/ping360"
)

const (
	Ping1D    = "ping1d"
	Ping1DTSR = "ping1dtsr"
	TSR1000   = "tsr1000"
	Ping360   = ping360.Kind
)

var constructors = map[string]func() *message.Family{
	Ping1D:    func() *message.Family { return ping1d.NewFamily(Ping1D) },
	Ping1DTSR: func() *message.Family { return ping1d.NewFamily(Ping1DTSR) },
	TSR1000:   func() *message.Family { return ping1d.NewFamily(TSR1000) },
	Ping360:   ping360.NewFamily,
}

// New returns family by case insensitive name.
func New(name string) (*message.Family, error) {
	c, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.NotFoundf("device family=%q, known: %s", name, strings.Join(Names(), ","))
	}
	return c(), nil
}

func MustNew(name string) *message.Family {
	f, err := New(name)
	if err != nil {
		panic(err)
	}
	return f
}

func Names() []string {
	ss := make([]string, 0, len(constructors))
	for name := range constructors {
		ss = append(ss, name)
	}
	sort.Strings(ss)
	return ss
}
