package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge(t *testing.T) {
	t.Run("nested maps merge key by key", func(t *testing.T) {
		target := map[string]any{
			"name": "AquaVolt Monitor",
			"bluetooth": map[string]any{
				"rssi":        -52,
				"statusLabel": "Connected",
			},
		}
		patch := map[string]any{
			"bluetooth": map[string]any{
				"statusLabel": "Weak",
			},
		}

		out := DeepMerge(target, patch)
		bt := out["bluetooth"].(map[string]any)
		assert.Equal(t, "Weak", bt["statusLabel"])
		assert.Equal(t, -52, bt["rssi"])
		assert.Equal(t, "AquaVolt Monitor", out["name"])
	})

	t.Run("scalar patch replaces a map value", func(t *testing.T) {
		target := map[string]any{"wifi": map[string]any{"ssid": "x"}}
		out := DeepMerge(target, map[string]any{"wifi": nil})
		assert.Nil(t, out["wifi"])
	})

	t.Run("inputs are not mutated", func(t *testing.T) {
		target := map[string]any{"a": map[string]any{"b": 1}}
		patch := map[string]any{"a": map[string]any{"c": 2}}

		_ = DeepMerge(target, patch)
		assert.Equal(t, map[string]any{"b": 1}, target["a"])
		assert.Equal(t, map[string]any{"c": 2}, patch["a"])
	})
}

func TestApplyConnectionType(t *testing.T) {
	t.Run("seeds wifi defaults and backfills identity", func(t *testing.T) {
		out := ApplyConnectionType(map[string]any{}, ConnectionWifi, 1234)

		assert.Equal(t, ConnectionWifi, out["connectionType"])
		assert.Equal(t, StatusOnline, out["status"])
		assert.EqualValues(t, 1234, out["updatedAt"])
		assert.Equal(t, DefaultName, out["name"])
		assert.Equal(t, DefaultID, out["id"])
		assert.Equal(t, DefaultModel, out["model"])
		assert.Equal(t, DefaultFirmware, out["firmware"])

		wifi, ok := out["wifi"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "HomeNetwork_5G", wifi["ssid"])
	})

	t.Run("keeps an existing wifi sub-record", func(t *testing.T) {
		current := map[string]any{
			"wifi": map[string]any{"ssid": "Workshop", "ip": "10.0.0.9"},
		}
		out := ApplyConnectionType(current, ConnectionWifi, 1)
		wifi := out["wifi"].(map[string]any)
		assert.Equal(t, "Workshop", wifi["ssid"])
	})

	t.Run("switching modes preserves the inactive sub-record", func(t *testing.T) {
		current := map[string]any{
			"connectionType": ConnectionWifi,
			"wifi":           map[string]any{"ssid": "Workshop"},
		}
		out := ApplyConnectionType(current, ConnectionBluetooth, 1)

		assert.Equal(t, ConnectionBluetooth, out["connectionType"])
		wifi := out["wifi"].(map[string]any)
		assert.Equal(t, "Workshop", wifi["ssid"])

		bt, ok := out["bluetooth"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Connected", bt["statusLabel"])
	})

	t.Run("does not overwrite a custom name", func(t *testing.T) {
		out := ApplyConnectionType(map[string]any{"name": "Rooftop Unit"}, ConnectionBluetooth, 1)
		assert.Equal(t, "Rooftop Unit", out["name"])
	})
}
