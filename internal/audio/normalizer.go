package audio

import (
	"math"

	"github.com/lumos-project/lumos/internal/shared/util"
)

// epsilon is the floor max_sum decays to, preventing division by zero.
const epsilon = 0.0000001

// RMSMean folds a PCM buffer down to its RMS magnitude: sqrt(sum(x_i^2))/len(buffer).
func RMSMean(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range buffer {
		sumSq += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sumSq) / float64(len(buffer)))
}

// Normalizer adaptively rescales RMS means into [0,1]. It keeps a sliding
// sum over the last W means and a running maximum of that sum (max_sum,
// decayed slowly while not exceeded), so the output covers most of the
// range regardless of the source's absolute volume while still recovering
// quickly after silence.
type Normalizer struct {
	window   int
	prevVals *util.RingBuffer[float32]
	sum      float32
	maxSum   float32
}

// NewNormalizer creates a Normalizer with a sliding window of window
// means; window 1 tracks the instantaneous RMS and is the usual choice.
// The window is held in a util.RingBuffer so eviction is O(1) without the
// backing array creeping forward on every Push.
func NewNormalizer(window int) *Normalizer {
	if window < 1 {
		window = 1
	}
	return &Normalizer{
		window:   window,
		prevVals: util.NewRingBuffer[float32](window),
	}
}

// Push feeds one RMS mean into the normalizer and returns the normalized
// intensity in [0,1]. samplesPerInput is the length of the raw
// (pre-framing) PCM chunk that produced this mean — the decay formula
// calibrates against the effective input rate, not the emitted buffer
// size, so it must be the caller's raw capture-chunk length.
func (n *Normalizer) Push(mean float32, samplesPerInput int) float32 {
	newVal := mean / float32(n.window)
	var oldest float32
	if n.prevVals.IsFull() {
		oldest = n.prevVals.Get(0)
	}
	n.prevVals.Push(newVal)
	n.sum -= oldest
	n.sum += newVal

	if n.sum > n.maxSum {
		n.maxSum = n.sum
	} else if n.maxSum > epsilon {
		decayPerBuffer := float32((1.0 / 330000.0) / (44100.0 / float64(samplesPerInput)))
		n.maxSum -= decayPerBuffer
		if n.maxSum < epsilon {
			n.maxSum = epsilon
		}
	}

	if n.maxSum <= 0 {
		return 0
	}
	intensity := n.sum / n.maxSum
	if intensity < 0 {
		return 0
	}
	if intensity > 1 {
		return 1
	}
	return intensity
}
