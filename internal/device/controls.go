package device

import (
	"sort"
	"strings"
)

// Control is a stored property that a front-end can change, together with
// the command that changes it.
type Control struct {
	Category string
	Key      string
	Value    string
	Group    string
	// Options lists the accepted values in device order.
	Options []string
	Toggle  bool
}

// Command returns the command setting the control to value.
func (c Control) Command(value string) Command {
	return Command{Group: c.Group, Prop: c.Key, Value: value}
}

// Next returns the option delta steps away from the current value,
// wrapping around.
func (c Control) Next(delta int) string {
	if len(c.Options) == 0 {
		return c.Value
	}
	i := 0
	for j, o := range c.Options {
		if o == c.Value {
			i = j
			break
		}
	}
	n := len(c.Options)
	return c.Options[((i+delta)%n+n)%n]
}

type controlRoute struct {
	category string
	key      string
	prefix   bool
	group    string
	toggle   bool
}

var controlRoutes = []controlRoute{
	{category: CategoryANC, key: "mode", group: "anc"},
	{category: CategoryANC, key: "level", group: "anc"},
	{category: CategoryANC, key: "one_bud_anc", group: "anc", toggle: true},
	{category: CategoryConfig, key: "auto_pause", group: "auto_pause", toggle: true},
	{category: CategoryConfig, key: "low_latency", group: "low_latency", toggle: true},
	{category: CategorySound, key: "quality_preference", group: "sound_quality"},
	{category: CategorySound, key: "equalizer_preset", group: "equalizer"},
	{category: CategoryAction, key: "double_tap_", prefix: true, group: "gesture_double"},
	{category: CategoryAction, key: "triple_tap_", prefix: true, group: "gesture_triple"},
	{category: CategoryAction, key: "long_tap_", prefix: true, group: "gesture_long_split"},
	{category: CategoryAction, key: "noise_control_", prefix: true, group: "gesture_long_split"},
	{category: CategoryAction, key: "swipe_gesture", group: "gesture_swipe"},
	{category: CategoryEarDetection, key: "enabled", group: "ear_detection", toggle: true},
	{category: CategoryConversationAwareness, key: "enabled", group: "conversation_awareness", toggle: true},
	{category: CategoryPersonalizedVolume, key: "enabled", group: "personalized_volume", toggle: true},
	{category: CategoryDualConnect, key: "enabled", group: "dual_connect", toggle: true},
}

var toggleOptions = []string{"false", "true"}

// Controls lists the changeable properties present in a store snapshot,
// ordered by category and key.
func Controls(snapshot map[string]map[string]string) []Control {
	var out []Control
	for _, r := range controlRoutes {
		values := snapshot[r.category]
		for key, value := range values {
			if strings.HasSuffix(key, "_options") || !r.matches(key) {
				continue
			}
			c := Control{Category: r.category, Key: key, Value: value, Group: r.group, Toggle: r.toggle}
			if r.toggle {
				c.Options = toggleOptions
			} else if opts := optionsFor(values, key); opts != "" {
				c.Options = strings.Split(opts, ",")
			} else {
				continue
			}
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (r controlRoute) matches(key string) bool {
	if r.prefix {
		return strings.HasPrefix(key, r.key)
	}
	return key == r.key
}

// optionsFor finds "<key>_options", or the options shared by the left and
// right variants of a gesture.
func optionsFor(values map[string]string, key string) string {
	if opts, ok := values[key+"_options"]; ok {
		return opts
	}
	for _, side := range []string{"_left", "_right"} {
		if base, ok := strings.CutSuffix(key, side); ok {
			return values[base+"_options"]
		}
	}
	return ""
}
