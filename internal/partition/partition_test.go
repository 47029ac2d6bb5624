package partition

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"testing"
)

const helperEnv = "PARTITION_HELPER_PROCESS"

var routedKeys = []string{"the", "cat", "dog", "", "a", "lorem", "ipsum", "Zebra", "ünïcode", "key with spaces"}

// TestMain lets the test binary act as an independent process that prints
// its routing table.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		var n int
		fmt.Sscan(os.Getenv("PARTITION_REDUCERS"), &n)
		json.NewEncoder(os.Stdout).Encode(route(n))
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func route(n int) map[string]int {
	out := make(map[string]int, len(routedKeys))
	for _, k := range routedKeys {
		out[k] = For(k, n)
	}
	return out
}

func TestForStaysInRange(t *testing.T) {
	for n := 1; n <= 17; n++ {
		for _, k := range routedKeys {
			if r := For(k, n); r < 0 || r >= n {
				t.Fatalf("For(%q, %d) = %d out of range", k, n, r)
			}
		}
	}
}

func TestHashIsFNV1a(t *testing.T) {
	// FNV-1a 32 of the empty string is the offset basis 0x811c9dc5, masked to 31 bits
	if got, want := Hash(""), 0x811c9dc5&0x7fffffff; got != want {
		t.Fatalf("Hash(\"\") = %#x, expected %#x", got, want)
	}
	if Hash("the") != Hash("the") {
		t.Fatalf("Hash is not deterministic")
	}
}

func TestForPanicsOnZeroReducers(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for zero reducers")
		}
	}()
	For("key", 0)
}

// TestRoutingAgreesAcrossProcesses starts two separate processes and checks
// that both route every key exactly like this one.
func TestRoutingAgreesAcrossProcesses(t *testing.T) {
	const reducers = 5
	want := route(reducers)

	for i := 0; i < 2; i++ {
		cmd := exec.Command(os.Args[0])
		cmd.Env = append(os.Environ(), helperEnv+"=1", fmt.Sprintf("PARTITION_REDUCERS=%d", reducers))
		out, err := cmd.Output()
		if err != nil {
			t.Fatalf("helper process %d failed: %v", i, err)
		}

		var got map[string]int
		if err := json.Unmarshal(out, &got); err != nil {
			t.Fatalf("failed to decode helper output %q: %v", out, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("helper process %d routed differently:\n got  %v\n want %v", i, got, want)
		}
	}
	t.Logf("✓ Routing identical across independent processes")
}
