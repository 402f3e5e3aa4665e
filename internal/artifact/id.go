package artifact

import (
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator derives artifact identities. The millisecond timestamp keeps
// names sortable; the process counter and random suffix keep two
// invocations in the same millisecond apart.
type Generator struct {
	Now func() time.Time

	seq atomic.Uint64
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// New returns "<unix-millis>-<seq>-<8 hex chars>".
func (g *Generator) New() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	id := uuid.New()
	str := strconv.FormatInt(now().UnixMilli(), 10)
	str += "-" + strconv.FormatUint(g.seq.Add(1), 10)
	str += "-" + hex.EncodeToString(id[:4])

	return str
}
