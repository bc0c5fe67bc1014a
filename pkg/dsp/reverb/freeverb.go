package reverb

// Freeverb (Jezar at Dreampoint) tuning constants, scaled from the
// original 44.1kHz values to whatever sample rate NewFreeverb is given.
const (
	numCombs     = 8
	numAllpasses = 4
	fixedGain    = 0.015
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	initialRoom  = 0.5
	initialDamp  = 0.5
	initialWet   = 1.0 / 3.0
	initialDry   = 0.0
	initialWidth = 1.0
	stereoSpread = 23 // samples added to the right channel's taps for decorrelation

	freezeRoom = 1.0
	freezeDamp = 0.0
)

var combTuning = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassTuning = [numAllpasses]int{556, 441, 341, 225}

// Freeverb runs two independent comb+allpass chains (one per channel,
// taps offset by stereoSpread samples) rather than Schroeder's single
// mono chain, giving a wider, less metallic stereo image.
type Freeverb struct {
	combL [numCombs]*CombFilter
	combR [numCombs]*CombFilter

	allpassL [numAllpasses]*AllPassFilter
	allpassR [numAllpasses]*AllPassFilter

	gain       float64
	roomSize   float64
	damping    float64
	wetLevel   float64
	dryLevel   float64
	width      float64
	mode       float64 // >= 0.5 freezes the tail at freezeRoom/freezeDamp

	wet1, wet2 float64 // derived wet mix: same-channel and cross-channel gain
	dry        float64
}

// NewFreeverb builds a Freeverb instance tuned for sampleRate.
func NewFreeverb(sampleRate float64) *Freeverb {
	f := &Freeverb{
		gain:     fixedGain,
		roomSize: initialRoom,
		damping:  initialDamp,
		wetLevel: initialWet,
		dryLevel: initialDry,
		width:    initialWidth,
	}

	scale := sampleRate / 44100.0
	scaleDelay := func(samples int) int { return int(float64(samples) * scale) }

	for i, samples := range combTuning {
		f.combL[i] = NewCombFilter(scaleDelay(samples))
		f.combR[i] = NewCombFilter(scaleDelay(samples + stereoSpread))
	}
	for i, samples := range allpassTuning {
		f.allpassL[i] = NewAllPassFilter(scaleDelay(samples))
		f.allpassR[i] = NewAllPassFilter(scaleDelay(samples + stereoSpread))
		f.allpassL[i].SetFeedback(0.5)
		f.allpassR[i].SetFeedback(0.5)
	}

	f.update()
	return f
}

func (f *Freeverb) SetRoomSize(size float64) { f.roomSize = clamp01(size); f.update() }
func (f *Freeverb) SetDamping(damping float64) { f.damping = clamp01(damping); f.update() }
func (f *Freeverb) SetWetLevel(level float64) { f.wetLevel = clamp01(level); f.update() }
func (f *Freeverb) SetDryLevel(level float64) { f.dryLevel = clamp01(level); f.update() }
func (f *Freeverb) SetWidth(width float64)    { f.width = clamp01(width); f.update() }
func (f *Freeverb) SetMode(mode float64)      { f.mode = clamp01(mode); f.update() }

// update re-derives the wet/dry mix gains and comb feedback/damping
// whenever a parameter changes; freeze mode overrides room size and
// damping with fixed values for an infinitely sustaining tail.
func (f *Freeverb) update() {
	f.wet1 = f.wetLevel * (f.width/2.0 + 0.5)
	f.wet2 = f.wetLevel * ((1.0 - f.width) / 2.0)
	f.dry = f.dryLevel

	roomSize, damping := f.roomSize, f.damping
	if f.mode >= 0.5 {
		roomSize, damping = freezeRoom, freezeDamp
	}

	feedback := roomSize*scaleRoom + offsetRoom

	for i := range f.combL {
		f.combL[i].SetFeedback(feedback)
		f.combR[i].SetFeedback(feedback)
		f.combL[i].SetDamping(damping)
		f.combR[i].SetDamping(damping)
	}
}

// ProcessStereo feeds the gain-scaled mono sum of one stereo frame into
// both channel chains and cross-mixes their outputs by width before adding
// the dry signal back in.
func (f *Freeverb) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	input := (inputL + inputR) * float32(f.gain)

	var outL, outR float32
	for i := range f.combL {
		outL += f.combL[i].Process(input)
		outR += f.combR[i].Process(input)
	}
	for i := range f.allpassL {
		outL = f.allpassL[i].Process(outL)
		outR = f.allpassR[i].Process(outR)
	}

	outputL = outL*float32(f.wet1) + outR*float32(f.wet2) + inputL*float32(f.dry)
	outputR = outR*float32(f.wet1) + outL*float32(f.wet2) + inputR*float32(f.dry)
	return outputL, outputR
}

// Process filters a mono sample by running it through both channels and
// keeping the left output.
func (f *Freeverb) Process(input float32) float32 {
	outputL, _ := f.ProcessStereo(input, input)
	return outputL
}

// Reset clears every comb and allpass stage on both channels.
func (f *Freeverb) Reset() {
	for i := range f.combL {
		f.combL[i].Reset()
		f.combR[i].Reset()
	}
	for i := range f.allpassL {
		f.allpassL[i].Reset()
		f.allpassR[i].Reset()
	}
}

// SetPresetSmallRoom configures a tight, quickly-decaying room.
func (f *Freeverb) SetPresetSmallRoom() {
	f.SetRoomSize(0.3)
	f.SetDamping(0.75)
	f.SetWetLevel(0.25)
	f.SetDryLevel(0.75)
	f.SetWidth(0.5)
}

// SetPresetMediumHall configures a medium hall sound.
func (f *Freeverb) SetPresetMediumHall() {
	f.SetRoomSize(0.6)
	f.SetDamping(0.5)
	f.SetWetLevel(0.35)
	f.SetDryLevel(0.65)
	f.SetWidth(0.75)
}

// SetPresetLargeHall configures a large hall sound.
func (f *Freeverb) SetPresetLargeHall() {
	f.SetRoomSize(0.85)
	f.SetDamping(0.3)
	f.SetWetLevel(0.4)
	f.SetDryLevel(0.6)
	f.SetWidth(1.0)
}

// SetPresetCathedral configures a very large, bright, long-tailed space.
func (f *Freeverb) SetPresetCathedral() {
	f.SetRoomSize(0.95)
	f.SetDamping(0.1)
	f.SetWetLevel(0.5)
	f.SetDryLevel(0.5)
	f.SetWidth(1.0)
}
