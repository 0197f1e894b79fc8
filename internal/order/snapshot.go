package order

import (
	"encoding/json"
	"strconv"
)

// Checkout session metadata keys.
const (
	MetaRegion          = "region"
	MetaItems           = "items"
	MetaShippingAddress = "shipping_address"
)

// Gateway metadata limits: 500 characters per value and 50 keys per object.
// The snapshot may use up to maxSnapshotChunks keys; the rest are left for
// region and shipping address.
const (
	metadataValueLimit = 500
	maxSnapshotChunks  = 40
)

// ItemSnapshot is the cart identity carried through the gateway, keyed by line id.
type ItemSnapshot struct {
	ID        string `json:"id"`
	ProductID string `json:"productId,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Color     string `json:"color,omitempty"`
	Image     string `json:"image,omitempty"`
}

// LineKey is the unique key of the i-th cart line.
func LineKey(i int) string {
	return strconv.Itoa(i)
}

func snapshotKey(chunk int) string {
	if chunk == 0 {
		return MetaItems
	}
	return MetaItems + "_" + strconv.Itoa(chunk)
}

func encodeItems(items []ItemSnapshot) string {
	b, _ := json.Marshal(items)
	return string(b)
}

// EncodeSnapshot returns the metadata entries holding the cart snapshot.
// A snapshot that fits one value is stored under "items" as is. Otherwise image
// URLs are dropped and the entries are split across "items", "items_1", ...
// with every value within the metadata limit. An entry that cannot fit on its
// own, even without its slug, is left out; its line falls back to gateway data.
func EncodeSnapshot(items []ItemSnapshot) map[string]string {
	if s := encodeItems(items); len(s) <= metadataValueLimit {
		return map[string]string{MetaItems: s}
	}

	trimmed := make([]ItemSnapshot, len(items))
	for i, it := range items {
		it.Image = ""
		trimmed[i] = it
	}
	if s := encodeItems(trimmed); len(s) <= metadataValueLimit {
		return map[string]string{MetaItems: s}
	}

	out := map[string]string{}
	var chunk []ItemSnapshot
	flush := func() {
		if len(chunk) > 0 && len(out) < maxSnapshotChunks {
			out[snapshotKey(len(out))] = encodeItems(chunk)
		}
		chunk = nil
	}

	for _, it := range trimmed {
		if len(encodeItems([]ItemSnapshot{it})) > metadataValueLimit {
			it.Slug = ""
			if len(encodeItems([]ItemSnapshot{it})) > metadataValueLimit {
				continue
			}
		}
		next := append(append([]ItemSnapshot(nil), chunk...), it)
		if len(encodeItems(next)) > metadataValueLimit {
			flush()
			next = []ItemSnapshot{it}
		}
		chunk = next
	}
	flush()

	return out
}

// DecodeSnapshot reassembles the snapshot from session metadata, by line id.
// Missing or malformed chunks are skipped.
func DecodeSnapshot(meta map[string]string) map[string]ItemSnapshot {
	out := map[string]ItemSnapshot{}

	for i := 0; i < maxSnapshotChunks; i++ {
		raw, ok := meta[snapshotKey(i)]
		if !ok {
			break
		}

		var items []ItemSnapshot
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			continue
		}
		for _, it := range items {
			if it.ID != "" {
				out[it.ID] = it
			}
		}
	}

	return out
}
