package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Hushmonday/Echo-hackathon/internal/config"
	"github.com/Hushmonday/Echo-hackathon/internal/terminal"
	"github.com/Hushmonday/Echo-hackathon/internal/utils"
	"github.com/Hushmonday/Echo-hackathon/pkg/ai"
	"github.com/Hushmonday/Echo-hackathon/pkg/audioio"
	"github.com/Hushmonday/Echo-hackathon/pkg/backend"
	"github.com/Hushmonday/Echo-hackathon/pkg/blobstore"
	"github.com/Hushmonday/Echo-hackathon/pkg/models"
	"github.com/Hushmonday/Echo-hackathon/pkg/output_device"
	"github.com/Hushmonday/Echo-hackathon/pkg/panel"
	"github.com/Hushmonday/Echo-hackathon/pkg/recorder"
)

var rootCmd = &cobra.Command{
	Use:   "echo",
	Short: "Echo demo recorder",
	Long:  `Records the microphone, uploads the recording to the Echo backend, and runs the summary, export and AI demos.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cmd.Flags())
		if err != nil {
			return err
		}
		utils.SetupZerolog(cfg.Verbose)
		return run(cmd.Context(), cfg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().String("backend-url", backend.DefaultBaseURL, "Echo backend base address")
	rootCmd.Flags().String("openai-api-key", "", "OpenAI API key, enables the writer, summarizer and transcription demos")
	rootCmd.Flags().String("openai-model", ai.DefaultModel, "Chat model behind the writer and summarizer demos")
	rootCmd.Flags().BoolP("verbose", "v", false, "Debug logging")
	rootCmd.Flags().Bool("no-playback", false, "Do not open the speakers")
}

func setupSignalHandler(cleanup func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		log.Info().Msgf("Received signal: %v", sig)

		cleanup()
		os.Exit(1)
	}()
}

func run(ctx context.Context, cfg config.Config) error {
	setupStart := time.Now()

	var openAIClient *openai.Client
	if cfg.OpenAIAPIKey != "" {
		openAIClient = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		log.Warn().Msg("OPEN_AI_API_KEY is not set, the AI demos will report they are not available")
	}
	capabilities := ai.NewOpenAICapabilities(openAIClient, cfg.OpenAIModel)

	var speakers output_device.AudioOutputDevice
	if !cfg.NoPlayback {
		var err error
		speakers, err = audioio.NewSpeakers(models.AudioFormat{
			SampleRate:  audioio.MyDeviceSampleRate,
			NumChannels: audioio.MyDeviceInputChannels,
			BitDepth:    16,
		})
		if err != nil {
			log.Warn().Err(err).Msg("cannot open speakers, playback disabled")
			speakers = nil
		}
	}

	blobs := blobstore.New()
	display := terminal.NewDisplay(os.Stdout)
	p := panel.New(
		recorder.New(audioio.NewMicrophone, blobs),
		blobs,
		backend.NewClient(cfg.BackendURL, nil),
		capabilities,
		display,
		speakers,
	)
	defer func() { dbg(p.Close()) }()
	setupSignalHandler(func() { dbg(p.Close()) })

	log.Debug().Dur("setup_time", time.Since(setupStart)).Str("backend_url", cfg.BackendURL).Bool("writer", capabilities.HasWriter()).Bool("summarizer", capabilities.HasSummarizer()).Bool("transcriber", capabilities.HasTranscriber()).Msg("setup done")
	// ==== SETUP DONE

	return terminal.NewCommandLoop(p, display, os.Stdin).Run(ctx)
}

func main() {
	utils.SetupZerolog(false)
	ftl(rootCmd.ExecuteContext(context.Background()))
}

func dbg(err error) {
	utils.Dbg(err)
}

func ftl(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("sth essential failed")
		debug.PrintStack()
	}
}
