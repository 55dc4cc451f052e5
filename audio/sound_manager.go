package audio

import (
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/particles/parameter"
)

const sampleRate = beep.SampleRate(parameter.AudioSampleRate)

// SoundManager owns the speaker and mixes the click track with one-shot effects
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	clicker     *Clicker
	clickCtrl   *beep.Ctrl
	initialized bool
}

// NewSoundManager creates a manager; nothing plays until Initialize
func NewSoundManager() *SoundManager {
	clicker := NewClicker(sampleRate)
	sm := &SoundManager{
		mixer:   &beep.Mixer{},
		clicker: clicker,
	}
	sm.clickCtrl = &beep.Ctrl{Streamer: newVolume(clicker, parameter.ClickVolume)}
	sm.mixer.Add(sm.clickCtrl)
	return sm
}

// Initialize opens the speaker and starts the mixer
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(parameter.AudioBufferDuration)); err != nil {
		return err
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	return nil
}

// Cleanup silences everything; beep has no speaker close, clearing the mixer is enough
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()
	sm.initialized = false
}

// SetCollisions updates the click rate from the last tick's collision count
func (sm *SoundManager) SetCollisions(perTick int64) {
	sm.clicker.SetRate(ClickRate(perTick))
}

// SetMuted pauses or resumes the click track
func (sm *SoundManager) SetMuted(muted bool) {
	speaker.Lock()
	sm.clickCtrl.Paused = muted
	speaker.Unlock()
}

// PlayStep plays the single-step blip
func (sm *SoundManager) PlayStep() {
	sm.play(CreateStepSound(sampleRate, parameter.ClickVolume))
}

// PlayFault plays the aborted-run buzz
func (sm *SoundManager) PlayFault() {
	sm.play(CreateFaultSound(sampleRate, parameter.ClickVolume))
}

func (sm *SoundManager) play(s beep.Streamer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()
}
