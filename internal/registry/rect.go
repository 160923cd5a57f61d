package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// rectFields is the number of comma-separated fields in a stored rectangle.
const rectFields = 5

// PeerRect is one peer's published window rectangle.
type PeerRect struct {
	Peer     peer.ID      `json:"peer"`
	Rect     spatial.Rect `json:"rect"`
	LastSeen time.Time    `json:"lastSeen"`
}

// Encode renders "<left>,<top>,<width>,<height>,<lastSeenMillis>".
func (r PeerRect) Encode() string {
	return strings.Join([]string{
		formatFloat(r.Rect.Left),
		formatFloat(r.Rect.Top),
		formatFloat(r.Rect.Width),
		formatFloat(r.Rect.Height),
		strconv.FormatInt(peer.Millis(r.LastSeen), 10),
	}, ",")
}

// ParsePeerRect decodes a stored rectangle published by id.
func ParsePeerRect(id peer.ID, value string) (PeerRect, error) {
	parts := strings.Split(value, ",")
	if len(parts) != rectFields {
		return PeerRect{}, fmt.Errorf("rect for %s: want %d fields, got %d", id, rectFields, len(parts))
	}
	var nums [4]float64
	for i := range nums {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return PeerRect{}, fmt.Errorf("rect for %s field %d: %w", id, i, err)
		}
		nums[i] = f
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(parts[4]), 10, 64)
	if err != nil {
		return PeerRect{}, fmt.Errorf("rect for %s timestamp: %w", id, err)
	}
	return PeerRect{
		Peer:     id,
		Rect:     spatial.Rect{Left: nums[0], Top: nums[1], Width: nums[2], Height: nums[3]},
		LastSeen: peer.FromMillis(ms),
	}, nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
