package preset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/budsctl/internal/device"
	"github.com/muurk/budsctl/internal/store"
)

// fakeDevice writes submitted values straight back into its store, the
// way a device answering a set command would.
type fakeDevice struct {
	store *store.Store

	mu        sync.Mutex
	submitted []device.Command
	ignore    map[string]bool
	reject    map[string]error
}

func newFakeDevice() *fakeDevice {
	st := store.New()
	st.PutAll(device.CategoryANC, map[string]string{
		"mode":         "normal",
		"mode_options": "normal,cancellation,awareness",
	})
	st.Put(device.CategoryConfig, "auto_pause", "false")
	st.Put(device.CategoryBattery, "global", "70")
	return &fakeDevice{store: st, ignore: map[string]bool{}, reject: map[string]error{}}
}

func (f *fakeDevice) Store() *store.Store { return f.store }

func (f *fakeDevice) Submit(cmd device.Command) error {
	f.mu.Lock()
	f.submitted = append(f.submitted, cmd)
	f.mu.Unlock()

	if err := f.reject[cmd.Prop]; err != nil {
		return err
	}
	if f.ignore[cmd.Prop] {
		return nil
	}
	for _, c := range device.Controls(f.store.Snapshot()) {
		if c.Group == cmd.Group && c.Key == cmd.Prop {
			f.store.Put(c.Category, c.Key, cmd.Value)
		}
	}
	return nil
}

func fastOptions() *VerifyOptions {
	return &VerifyOptions{MaxRetries: 2, RetryDelay: time.Millisecond, MaxRetryDelay: 2 * time.Millisecond}
}

func commute() *Preset {
	return &Preset{
		Version: CurrentVersion,
		Name:    "commute",
		Settings: []Setting{
			{Category: "anc", Key: "mode", Value: "cancellation"},
			{Category: "config", Key: "auto_pause", Value: "true"},
		},
	}
}

func TestFromSnapshot(t *testing.T) {
	p := FromSnapshot("home", "HUAWEI FreeBuds 5i", newFakeDevice().store.Snapshot())

	want := []Setting{
		{Category: "anc", Key: "mode", Value: "normal"},
		{Category: "config", Key: "auto_pause", Value: "false"},
	}
	if len(p.Settings) != len(want) {
		t.Fatalf("Settings = %v, want %v", p.Settings, want)
	}
	for i := range want {
		if p.Settings[i] != want[i] {
			t.Errorf("Settings[%d] = %v, want %v", i, p.Settings[i], want[i])
		}
	}
	if p.Version != CurrentVersion || p.Device != "HUAWEI FreeBuds 5i" {
		t.Errorf("header = %d %q", p.Version, p.Device)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets", "commute.yaml")
	if err := commute().Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Name != "commute" || len(loaded.Settings) != 2 || loaded.Settings[1].Value != "true" {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantName string
		wantErr  string
	}{
		{
			name:     "name from file",
			content:  "settings:\n  - {category: anc, key: mode, value: awareness}\n",
			wantName: "quiet",
		},
		{name: "future version", content: "version: 2\n", wantErr: "unsupported preset version"},
		{name: "bad yaml", content: "settings: [", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "quiet.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			p, err := Load(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Load() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if p.Name != tt.wantName || p.Version != CurrentVersion {
				t.Errorf("Load() = %+v, want name %q", p, tt.wantName)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	p := &Preset{Settings: []Setting{
		{Category: "anc", Key: "mode", Value: "awareness"},
		{Category: "anc", Key: "mode", Value: "normal"},
		{Category: "anc", Key: "level", Value: "comfort"},
		{Category: "config", Key: "auto_pause", Value: "maybe"},
	}}

	steps, errs := p.Plan(newFakeDevice().store.Snapshot())

	if len(steps) != 1 || steps[0].Value != "awareness" || steps[0].Control.Group != "anc" {
		t.Errorf("steps = %+v, want anc.mode=awareness", steps)
	}
	if len(errs) != 3 {
		t.Fatalf("errs = %v, want 3", errs)
	}
	if !strings.Contains(errs[0].Error(), "more than once") {
		t.Errorf("errs[0] = %v", errs[0])
	}
	if !errors.Is(errs[1], ErrUnsupported) {
		t.Errorf("errs[1] = %v, want ErrUnsupported", errs[1])
	}
	if !strings.Contains(errs[2].Error(), "invalid value") {
		t.Errorf("errs[2] = %v", errs[2])
	}
}

func TestSafeApply(t *testing.T) {
	dev := newFakeDevice()
	res := SafeApply(context.Background(), dev, commute(), fastOptions())

	if !res.Success() || res.Err() != nil {
		t.Fatalf("SafeApply() = %v", res)
	}
	if len(dev.submitted) != 2 {
		t.Errorf("submitted = %v, want 2 commands", dev.submitted)
	}
	if got, _ := dev.store.Get("anc", "mode"); got != "cancellation" {
		t.Errorf("anc.mode = %q, want cancellation", got)
	}
	if !strings.Contains(res.String(), "2 setting(s) changed") {
		t.Errorf("String() = %q", res.String())
	}
}

func TestSafeApplyNothingToDo(t *testing.T) {
	dev := newFakeDevice()
	p := &Preset{Name: "same", Settings: []Setting{{Category: "anc", Key: "mode", Value: "normal"}}}

	res := SafeApply(context.Background(), dev, p, fastOptions())
	if !res.Success() || len(dev.submitted) != 0 || res.Update.Attempts != 0 {
		t.Errorf("SafeApply() = %v, submitted %v", res, dev.submitted)
	}
}

func TestSafeApplyRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*fakeDevice)
		wantIn string
	}{
		{
			name:   "value never reads back",
			setup:  func(f *fakeDevice) { f.ignore["auto_pause"] = true },
			wantIn: "config.auto_pause: expected true, got false",
		},
		{
			name:   "command rejected",
			setup:  func(f *fakeDevice) { f.reject["auto_pause"] = errors.New("device: invalid value") },
			wantIn: "device: invalid value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			tt.setup(dev)

			res := SafeApply(context.Background(), dev, commute(), fastOptions())

			if res.Success() {
				t.Fatal("SafeApply() succeeded")
			}
			if !res.RollbackAttempted || !res.RolledBack() {
				t.Fatalf("rollback attempted=%v ok=%v: %v", res.RollbackAttempted, res.RolledBack(), res)
			}
			if err := res.Err(); err == nil || !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("Err() = %v, want it to contain %q", err, tt.wantIn)
			}
			if got, _ := dev.store.Get("anc", "mode"); got != "normal" {
				t.Errorf("anc.mode = %q after rollback, want normal", got)
			}
			last := dev.submitted[len(dev.submitted)-1]
			if last != (device.Command{Group: "anc", Prop: "mode", Value: "normal"}) {
				t.Errorf("last command = %v, want anc.mode=normal", last)
			}
		})
	}
}

func TestApplyCancelled(t *testing.T) {
	dev := newFakeDevice()
	dev.ignore["mode"] = true
	steps, _ := commute().Plan(dev.store.Snapshot())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Apply(ctx, dev, steps[:1], &VerifyOptions{MaxRetries: 100, InitialDelay: time.Second, RetryDelay: time.Second})
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
}

func TestFormatChanges(t *testing.T) {
	steps, _ := commute().Plan(newFakeDevice().store.Snapshot())
	out := FormatChanges(steps)
	for _, want := range []string{"anc.mode: normal → cancellation", "config.auto_pause: false → true"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatChanges() missing %q in:\n%s", want, out)
		}
	}
	if got := FormatChanges(nil); got != "  (no changes)" {
		t.Errorf("FormatChanges(nil) = %q", got)
	}
}
