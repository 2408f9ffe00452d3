// Package session composes the per-session control flow: the orchestrator
// routes recognized utterances through history bounding and the guarded
// generation provider, and the timer drives the lifecycle phases.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/interviewd/internal/domain"
	"github.com/soyeahso/interviewd/internal/failover"
	"github.com/soyeahso/interviewd/internal/history"
	"github.com/soyeahso/interviewd/internal/logging"
	"github.com/soyeahso/interviewd/internal/provider"
	"github.com/soyeahso/interviewd/internal/transcript"
)

// Signaler delivers lifecycle messages to the session's client.
type Signaler interface {
	EmitWarning(sessionID, message string)
	EmitCompleted(sessionID, message, token string, durationMinutes int)
}

// BookingService is the external booking collaborator invoked at closure.
type BookingService interface {
	MarkCompleted(ctx context.Context, bookingID string) error
	CreateEvaluation(ctx context.Context, bookingID string, durationMinutes int) (string, error)
}

const (
	warningMessage   = "About two minutes remain in this interview. Please wrap up your current thought."
	completedMessage = "The interview is complete. Thank you for participating."

	// Fallback closing line when the generation capability is unavailable
	// at closure. The candidate always hears a goodbye.
	fallbackClosing = "We are out of time, so we'll stop here. Thank you for your time today, and we'll be in touch soon."

	closingInstruction = "The interview time is up. Say a brief, warm goodbye to the candidate and let them know the team will follow up. Do not ask any further questions."

	// Redirect used when a mid-session response had to be suppressed
	// entirely.
	continuePrompt = "Let's keep going. Could you tell me more about that?"

	synthesisTimeout = 15 * time.Second
)

// wrapupPhrases mark an agent response that tries to end the interview
// early. Only the timer closes a session, so these are suppressed while
// turns are still being accepted.
var wrapupPhrases = []string{
	"thank you for your time",
	"that concludes our interview",
	"this concludes our interview",
	"we are out of time",
	"we're out of time",
	"the interview is now over",
	"the interview is over",
	"we'll be in touch",
	"have a great day",
}

// Orchestrator runs one session's turn processing and closure procedure.
// Turn processing is driven by externally delivered recognition events and
// may run concurrently with the timer; the two communicate only through the
// session's phase.
type Orchestrator struct {
	sess     *domain.Session
	recorder *transcript.Recorder
	window   *history.Window

	generate   *failover.Guard[provider.GenerateRequest, string]
	transcribe *failover.Guard[provider.TranscribeRequest, string]
	synth      provider.Synthesizer

	signaler Signaler
	bookings BookingService

	postCloseGrace time.Duration
	log            *logging.Logger
	sleep          func(time.Duration)
}

// NewOrchestrator wires the collaborators for one session. transcribe,
// synth, signaler, and bookings may be nil when the corresponding
// collaborator is not attached.
func NewOrchestrator(
	sess *domain.Session,
	recorder *transcript.Recorder,
	window *history.Window,
	generate *failover.Guard[provider.GenerateRequest, string],
	transcribe *failover.Guard[provider.TranscribeRequest, string],
	synth provider.Synthesizer,
	signaler Signaler,
	bookings BookingService,
	postCloseGrace time.Duration,
	log *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		sess:           sess,
		recorder:       recorder,
		window:         window,
		generate:       generate,
		transcribe:     transcribe,
		synth:          synth,
		signaler:       signaler,
		bookings:       bookings,
		postCloseGrace: postCloseGrace,
		log:            log.Sub("session").Session(sess.ID),
		sleep:          time.Sleep,
	}
}

// Session returns the session this orchestrator drives.
func (o *Orchestrator) Session() *domain.Session {
	return o.sess
}

// Transcript returns the recorded turns so far, in index order.
func (o *Orchestrator) Transcript() []domain.Turn {
	return o.recorder.Get()
}

// ProcessUtterance runs the per-turn procedure for one finalized user
// utterance. Turns arriving outside the accepting phases are dropped. A
// capability outage costs the candidate one response, never the session.
func (o *Orchestrator) ProcessUtterance(ctx context.Context, text string) error {
	if !o.sess.Accepting() {
		o.log.Debug().Str("phase", o.sess.Phase().String()).Msg("utterance dropped, session not accepting turns")
		return nil
	}

	userTurn := o.recorder.Record(ctx, domain.RoleUser, text)
	o.window.Append(userTurn)

	instructions, turns := o.window.Materialize()
	response, err := o.generate.Call(ctx, provider.GenerateRequest{
		Instructions: instructions,
		Turns:        turns,
	})
	if err != nil {
		if errors.Is(err, failover.ErrUnavailable) {
			o.log.Warn().Err(err).Msg("generation unavailable, turn goes unanswered")
			return nil
		}
		o.log.Error().Err(err).Msg("generation failed with terminal error, turn dropped")
		return err
	}

	if o.sess.Accepting() {
		response = o.suppressWrapup(response)
	}

	// The timer may have terminated the session while generation was in
	// flight; a terminated session records nothing further.
	if o.sess.Phase() == domain.PhaseTerminated {
		o.log.Debug().Msg("discarding generation result, session terminated mid-turn")
		return nil
	}

	agentTurn := o.recorder.Record(ctx, domain.RoleAgent, response)
	o.window.Append(agentTurn)

	o.speak(response)
	return nil
}

// ProcessAudio recognizes one finalized audio segment and feeds the text
// through the per-turn procedure.
func (o *Orchestrator) ProcessAudio(ctx context.Context, audio []byte, sampleRate int) error {
	if o.transcribe == nil {
		return errors.New("no recognition capability attached")
	}
	if !o.sess.Accepting() {
		o.log.Debug().Str("phase", o.sess.Phase().String()).Msg("audio dropped, session not accepting turns")
		return nil
	}

	text, err := o.transcribe.Call(ctx, provider.TranscribeRequest{
		Audio:      audio,
		SampleRate: sampleRate,
	})
	if err != nil {
		if errors.Is(err, failover.ErrUnavailable) {
			o.log.Warn().Err(err).Msg("recognition unavailable, segment dropped")
			return nil
		}
		o.log.Error().Err(err).Msg("recognition failed with terminal error, segment dropped")
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return o.ProcessUtterance(ctx, text)
}

// Warn emits the interview_warning signal. Invoked once by the timer.
func (o *Orchestrator) Warn(ctx context.Context) {
	o.log.Info().Msg("warning threshold reached")
	if o.signaler != nil {
		o.signaler.EmitWarning(o.sess.ID, warningMessage)
	}
}

// Close runs the closure procedure: one final closing utterance through the
// same bounded, recorded generation path, the playback grace period, the
// interview_completed signal, and the booking-status and evaluation
// collaborators. The three boundary actions are independent; a failure in
// one never blocks the others, and nothing here prevents termination.
func (o *Orchestrator) Close(ctx context.Context) {
	o.log.Info().Msg("closing session")

	closing := o.closingUtterance(ctx)
	turn := o.recorder.Record(ctx, domain.RoleAgent, closing)
	o.window.Append(turn)
	o.speak(closing)

	o.sleep(o.postCloseGrace)

	durationMinutes := int(o.sess.Duration.Minutes())
	if o.signaler != nil {
		o.signaler.EmitCompleted(o.sess.ID, completedMessage, uuid.NewString(), durationMinutes)
	}

	o.runBoundaryActions(ctx, durationMinutes)
}

// closingUtterance generates the goodbye through the guarded generation
// path so it is bounded and recorded like any other turn. Outages fall back
// to a fixed goodbye.
func (o *Orchestrator) closingUtterance(ctx context.Context) string {
	instructions, turns := o.window.Materialize()
	if instructions != "" {
		instructions += "\n\n"
	}
	instructions += closingInstruction

	closing, err := o.generate.Call(ctx, provider.GenerateRequest{
		Instructions: instructions,
		Turns:        turns,
	})
	if err != nil || strings.TrimSpace(closing) == "" {
		o.log.Warn().Err(err).Msg("closing utterance generation failed, using fallback")
		return fallbackClosing
	}
	return closing
}

// runBoundaryActions fans out to the external collaborators. Each error is
// logged individually per step.
func (o *Orchestrator) runBoundaryActions(ctx context.Context, durationMinutes int) {
	if o.bookings == nil || o.sess.BookingID == "" {
		return
	}

	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		if err := o.bookings.MarkCompleted(ctx, o.sess.BookingID); err != nil {
			o.log.Error().Err(err).Str("bookingId", o.sess.BookingID).Msg("booking status update failed")
		}
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		if _, err := o.bookings.CreateEvaluation(ctx, o.sess.BookingID, durationMinutes); err != nil {
			o.log.Error().Err(err).Str("bookingId", o.sess.BookingID).Msg("evaluation trigger failed")
		}
	}()

	<-done
	<-done
}

// speak hands text to the synthesis collaborator, fire-and-forget. A
// synthesis failure never affects session state.
func (o *Orchestrator) speak(text string) {
	if o.synth == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), synthesisTimeout)
		defer cancel()
		if _, err := o.synth.Synthesize(ctx, text); err != nil {
			o.log.Warn().Err(err).Str("provider", o.synth.Name()).Msg("speech synthesis failed")
		}
	}()
}

// suppressWrapup strips sentences where the model tries to end the
// interview on its own. Only the timer closes a session.
func (o *Orchestrator) suppressWrapup(response string) string {
	lower := strings.ToLower(response)
	cut := -1
	for _, phrase := range wrapupPhrases {
		if i := strings.Index(lower, phrase); i >= 0 && (cut == -1 || i < cut) {
			cut = i
		}
	}
	if cut == -1 {
		return response
	}

	o.log.Warn().Msg("agent response attempted to end the interview, suppressing wrap-up")

	// Keep everything before the sentence containing the phrase.
	kept := response[:cut]
	if i := strings.LastIndexAny(kept, ".!?"); i >= 0 {
		kept = kept[:i+1]
	} else {
		kept = ""
	}
	kept = strings.TrimSpace(kept)
	if kept == "" {
		return continuePrompt
	}
	return kept
}
