// Package identity owns the stable per-installation device id sent to the
// backend on every request.
package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/reail-cli/internal/kv"
)

// Key is where the device id is persisted.
const Key = "reail_device_id_v1"

// Prefix starts every generated device id.
const Prefix = "dev_"

// DeviceID returns the stored device id, creating and persisting one on
// first use. Concurrent first calls agree on a single id.
func DeviceID(ctx context.Context, st kv.Store) (string, error) {
	raw, ok, err := st.Get(ctx, Key)
	if err == nil && ok {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id, nil
		}
	}

	var id string
	err = st.Update(ctx, Key, func(old []byte, ok bool) ([]byte, error) {
		if ok {
			if cur := strings.TrimSpace(string(old)); cur != "" {
				id = cur
				return old, nil
			}
		}
		id = Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
		return []byte(id), nil
	})
	if err != nil {
		return "", eris.Wrap(err, "identity: create device id")
	}
	return id, nil
}
