package station

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type Type int

const (
	Public Type = iota
	Private
)

func (t Type) String() string {
	return [...]string{"public", "private"}[t]
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) Scan(i any) error {
	switch v := i.(type) {
	case string:
		switch v {
		case "public":
			*t = Public
			return nil
		case "private":
			*t = Private
			return nil
		}
	}
	panic("invalid scan type")
}

// Station is a dock location. CycleCount tracks how many bikes are currently
// at the station; it is best-effort bookkeeping, not an FK-enforced residency.
type Station struct {
	ID         uuid.UUID
	Name       string
	Address    string
	CycleCount int `db:"cycle_count"`
	Type       Type
}
