package election

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
)

// Claim is the single authority record in the store.
type Claim struct {
	Holder    peer.ID   `json:"holder"`
	ClaimedAt time.Time `json:"claimedAt"`
	// Epoch counts takeovers. Values written without an epoch parse as 0.
	Epoch uint64 `json:"epoch"`
}

// Encode renders "<peerId>,<claimedAtMillis>,<epoch>".
func (c Claim) Encode() string {
	return fmt.Sprintf("%s,%d,%d", c.Holder, peer.Millis(c.ClaimedAt), c.Epoch)
}

// ParseClaim decodes "<peerId>,<claimedAtMillis>" with an optional epoch.
func ParseClaim(s string) (Claim, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return Claim{}, fmt.Errorf("claim %q: want 2 or 3 fields, got %d", s, len(parts))
	}
	holder, ok := peer.ParseID(parts[0])
	if !ok {
		return Claim{}, fmt.Errorf("claim %q: bad holder", s)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return Claim{}, fmt.Errorf("claim %q timestamp: %w", s, err)
	}
	c := Claim{Holder: holder, ClaimedAt: peer.FromMillis(ms)}
	if len(parts) == 3 {
		epoch, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil {
			return Claim{}, fmt.Errorf("claim %q epoch: %w", s, err)
		}
		c.Epoch = epoch
	}
	return c, nil
}

// Age is how long ago the claim was written.
func (c Claim) Age(now time.Time) time.Duration { return now.Sub(c.ClaimedAt) }

// Live reports whether the claim is within its lease.
func (c Claim) Live(now time.Time, lease time.Duration) bool {
	return c.Age(now) <= lease
}
