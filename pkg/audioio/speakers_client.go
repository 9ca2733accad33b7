package audioio

import (
	"fmt"
	"github.com/ebitengine/oto/v3"
	"github.com/rs/zerolog/log"
	"io"
	"sync"
	"time"

	"github.com/Hushmonday/Echo-hackathon/pkg/models"
	"github.com/Hushmonday/Echo-hackathon/pkg/output_device"
)

// speakers plays back recordings, one at a time.
//
// The state flow is:
//  1. currentPlayer == nil => nothing going on
//  2. Play grabs mutex => starting to play, monitorRoutine watches the player
//  3. Stop grabs mutex, pauses the player and waits until monitorRoutine closed it.
//
// Invariant: There is at most one monitorRoutine running at the same time.
type speakers struct {
	otoContext *oto.Context
	format     models.AudioFormat

	mutex         sync.Mutex // Protects currentPlayer, currentDone and stopFlag
	currentPlayer *oto.Player
	currentDone   *sync.WaitGroup
	stopFlag      bool
}

// NewSpeakers must be called at most once per process, oto allows a single context.
func NewSpeakers(format models.AudioFormat) (output_device.AudioOutputDevice, error) {
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("only 16 bit playback is supported, got %d", format.BitDepth)
	}
	op := &oto.NewContextOptions{
		SampleRate:   int(format.SampleRate),
		ChannelCount: int(format.NumChannels),
		Format:       oto.FormatSignedInt16LE,
	}

	log.Info().Uint32("sample_rate", format.SampleRate).Uint32("num_channels", format.NumChannels).Msg("oto context - will wait until ready")
	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context %w", err)
	}
	<-readyChan // Wait for the audio hardware to be ready (about 200ms empirically)
	log.Info().Msg("oto context ready")

	return &speakers{
		otoContext: otoCtx,
		format:     format,
	}, nil
}

// Play starts playing audioOutput and returns a WaitGroup to block on until it is done.
func (s *speakers) Play(audioOutput io.Reader) (*sync.WaitGroup, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.currentPlayer != nil {
		return nil, fmt.Errorf("already playing, you need to call Stop first")
	}

	s.currentDone = &sync.WaitGroup{}
	s.currentDone.Add(1)

	s.currentPlayer = s.otoContext.NewPlayer(audioOutput)
	s.currentPlayer.Play()

	go s.monitorRoutine(s.currentPlayer, s.currentDone)

	return s.currentDone, nil
}

func (s *speakers) Stop() error {
	s.mutex.Lock()
	if s.currentPlayer == nil {
		s.mutex.Unlock()
		return nil
	}
	if s.stopFlag {
		s.mutex.Unlock()
		return fmt.Errorf("double-stop called, the player is already being stopped")
	}

	log.Debug().Msg("speakers stopping ...")
	s.stopFlag = true
	s.currentPlayer.Pause()
	untilStopped := s.currentDone
	s.mutex.Unlock()

	untilStopped.Wait()
	return nil
}

func (s *speakers) monitorRoutine(player *oto.Player, done *sync.WaitGroup) {
	defer done.Done()
	startTime := time.Now()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		s.mutex.Lock()
		finished := !player.IsPlaying() || s.stopFlag
		s.mutex.Unlock()
		if finished {
			break
		}
	}

	s.mutex.Lock()
	if err := player.Close(); err != nil {
		log.Error().Err(err).Msg("player.Close failed")
	}
	s.currentPlayer = nil
	s.currentDone = nil
	s.stopFlag = false
	s.mutex.Unlock()

	log.Debug().Dur("playback_duration", time.Since(startTime)).Msg("playback done")
}
