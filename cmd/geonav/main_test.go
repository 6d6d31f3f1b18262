package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../internal/geometry/testdata/endcap.yaml"

const endcap0 = "/volWorld_PV_1/rockBox_lv_PV_0/volDetEnclosure_PV_0/volSAND_PV_0/MagIntVol_volume_PV_0/kloe_calo_volume_PV_0/ECAL_endcap_lv_PV_0"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("DETKIT_LOG_LEVEL", "disabled")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_DefaultRootsScanBothEndcaps(t *testing.T) {
	for _, args := range [][]string{{fixture}, {"scan", fixture}} {
		code, out, errOut := runCLI(t, args...)
		require.Equal(t, 0, code, errOut)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 12)
		assert.Equal(t,
			"  0.0, -510.0, 0.0, -1000.0, -510.0, -1690.0, "+endcap0+"/ECAL_ec_mod_0_lv_PV_0/ECAL_ec_mod_vert_0_lv_PV_0",
			lines[0])
		assert.Contains(t, lines[6], "ECAL_endcap_lv_PV_1")
	}
}

func TestRun_ExplicitRootJSON(t *testing.T) {
	code, out, _ := runCLI(t, "scan", fixture, "--root", endcap0, "--format", "json")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)

	var edge map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[4]), &edge))
	assert.Equal(t, "tube_seg", edge["shape"])
}

func TestRun_Modules(t *testing.T) {
	code, out, _ := runCLI(t, "modules", fixture, "--root", endcap0)
	require.Equal(t, 0, code)
	assert.Contains(t, out, endcap0+"\n")
	assert.Contains(t, out, "0 - [6] 133.2, 510.0, 127.5 -- ECAL_ec_mod_vert_0_lv_PV_0 / ECAL_ec_mod_0_lv_PV_0")
}

func TestRun_Errors(t *testing.T) {
	t.Run("Usage", func(t *testing.T) {
		cases := map[string][]string{
			"no file":      {},
			"two files":    {fixture, fixture},
			"bad format":   {"scan", fixture, "--format", "xml"},
			"zero cell":    {"modules", fixture, "--cell-width", "0"},
			"unknown flag": {"scan", fixture, "--bogus"},
		}
		for name, args := range cases {
			code, _, _ := runCLI(t, args...)
			assert.Equal(t, exitUsage, code, name)
		}
	})

	t.Run("Runtime", func(t *testing.T) {
		cases := map[string][]string{
			"missing file":    {"scan", "does-not-exist.yaml"},
			"unknown manager": {"scan", fixture, "--manager", "Other"},
			"unknown root":    {"scan", fixture, "--root", "/volWorld_PV_1/nope"},
		}
		for name, args := range cases {
			code, _, errOut := runCLI(t, args...)
			assert.Equal(t, 1, code, name)
			assert.Contains(t, errOut, "Error:", name)
		}
	})
}
