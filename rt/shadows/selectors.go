package shadows

// oneOf returns n flags with only flags[enabled] set. Any enabled index
// outside [0, n) clears them all.
func oneOf(n, enabled int) []bool {
	flags := make([]bool, n)
	if enabled >= 0 && enabled < n {
		flags[enabled] = true
	}
	return flags
}

func activeIndex(flags ...bool) int {
	for i, f := range flags {
		if f {
			return i
		}
	}
	return -1
}

// FilterSelector enables the PCF variant matching the configured filter.
type FilterSelector struct {
	PCF3 bool
	PCF5 bool
	PCF7 bool
}

func NewFilterSelector(f FilterMode) FilterSelector {
	flags := oneOf(3, int(f)-1)
	return FilterSelector{PCF3: flags[0], PCF5: flags[1], PCF7: flags[2]}
}

// Index returns the enabled variant, or -1 for the hardware 2x2 filter.
func (s FilterSelector) Index() int { return activeIndex(s.PCF3, s.PCF5, s.PCF7) }

type CascadeBlendSelector struct {
	Soft   bool
	Dither bool
}

func NewCascadeBlendSelector(b CascadeBlendMode) CascadeBlendSelector {
	flags := oneOf(2, int(b)-1)
	return CascadeBlendSelector{Soft: flags[0], Dither: flags[1]}
}

func (s CascadeBlendSelector) Index() int { return activeIndex(s.Soft, s.Dither) }

// ShadowMaskSelector picks how baked shadow masks combine with realtime shadows.
// Both flags are false when no reserved light uses a shadow mask.
type ShadowMaskSelector struct {
	Always   bool
	Distance bool
}

func NewShadowMaskSelector(used bool, mode ShadowmaskMode) ShadowMaskSelector {
	enabled := -1
	if used {
		if mode == ShadowmaskModeShadowmask {
			enabled = 0
		} else {
			enabled = 1
		}
	}
	flags := oneOf(2, enabled)
	return ShadowMaskSelector{Always: flags[0], Distance: flags[1]}
}

func (s ShadowMaskSelector) Index() int { return activeIndex(s.Always, s.Distance) }
