package assistant

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/bz888/pubgqna/internal/cognitive"
	"github.com/bz888/pubgqna/internal/logger"
	"github.com/bz888/pubgqna/internal/speech"
	"github.com/bz888/pubgqna/internal/ui"
)

// QuestionAnswerer returns ranked candidate answers from the knowledge base.
type QuestionAnswerer interface {
	GetAnswers(ctx context.Context, question string) ([]cognitive.Answer, error)
}

// SentimentAnalyzer labels a piece of text.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (cognitive.Sentiment, error)
}

// Speech recognises one utterance or speaks one answer per call.
type Speech interface {
	RecognizeOnce(ctx context.Context) speech.RecognitionResult
	SpeakText(ctx context.Context, text string) speech.SynthesisResult
}

// State is a node of the interaction state machine.
type State int

const (
	StateMainMenu State = iota
	StateTextSubLoop
	StateSpeechSubLoop
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "main menu"
	case StateTextSubLoop:
		return "text questions"
	case StateSpeechSubLoop:
		return "speech questions"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Mode says whether a question came from speech, in which case answers are
// also spoken.
type Mode int

const (
	ModeText Mode = iota
	ModeSpeech
)

const (
	backCommand = "back"

	menuText   = "1"
	menuSpeech = "2"
	menuQuit   = "3"
)

var escapePhrases = []string{"go back", "return to menu", "back to menu"}

// Assistant drives the menu and the two question sub-loops.
type Assistant struct {
	qa        QuestionAnswerer
	sentiment SentimentAnalyzer
	speech    Speech
	console   ui.Console
	log       *logger.Logger
}

func New(qa QuestionAnswerer, sentiment SentimentAnalyzer, speech Speech, console ui.Console) *Assistant {
	return &Assistant{
		qa:        qa,
		sentiment: sentiment,
		speech:    speech,
		console:   console,
		log:       logger.NewLogger("assistant"),
	}
}

// Run shows the menu until the user quits, input ends or ctx is cancelled.
func (a *Assistant) Run(ctx context.Context) error {
	state := StateMainMenu
	clearScreen := true

	for state != StateTerminated {
		var (
			next State
			err  error
		)

		switch state {
		case StateMainMenu:
			next, err = a.mainMenu(clearScreen)
		case StateTextSubLoop:
			next, err = a.askQuestionUsingText(ctx)
		case StateSpeechSubLoop:
			next, err = a.askQuestionUsingSpeech(ctx)
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				a.log.Info("input closed in ", state)
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		// keep the invalid choice message on screen
		clearScreen = !(state == StateMainMenu && next == StateMainMenu)
		if next != state {
			a.log.Info("state ", state, " -> ", next)
		}
		state = next
	}
	return nil
}

func (a *Assistant) mainMenu(clearScreen bool) (State, error) {
	if clearScreen {
		a.console.Clear()
		a.console.Println("Welcome to PUBG:BATTLEGROUNDS Question and Answers.")
		a.console.Println()
	}

	a.console.Println("Choose an option: ")
	a.console.Println("1. Ask a question using text.")
	a.console.Println("2. Ask a question using speech.")
	a.console.Println("3. Quit")

	choice, err := a.console.ReadLine()
	if err != nil {
		return StateTerminated, err
	}

	switch strings.TrimSpace(choice) {
	case menuText:
		return StateTextSubLoop, nil
	case menuSpeech:
		return StateSpeechSubLoop, nil
	case menuQuit:
		a.console.Println("Exiting the QnA application...")
		return StateTerminated, nil
	default:
		a.console.Println("Invalid choice. Please select a valid option.")
		return StateMainMenu, nil
	}
}

func (a *Assistant) askQuestionUsingText(ctx context.Context) (State, error) {
	for {
		a.console.Println()
		a.console.Println("Enter your question (type 'back' to go back to menu): ")

		question, err := a.console.ReadLine()
		if err != nil {
			return StateTerminated, err
		}

		if IsBackCommand(question) {
			return StateMainMenu, nil
		}
		if strings.TrimSpace(question) == "" {
			continue
		}

		a.ProcessQuestion(ctx, question, ModeText)
		if err := ctx.Err(); err != nil {
			return StateTerminated, err
		}
	}
}

func (a *Assistant) askQuestionUsingSpeech(ctx context.Context) (State, error) {
	for {
		a.console.Println("Speak your question (or say 'go back' to return to the menu).")
		a.console.Println("Listening...")

		result := a.speech.RecognizeOnce(ctx)
		if err := ctx.Err(); err != nil {
			return StateTerminated, err
		}

		if result.Reason != speech.ReasonRecognizedSpeech {
			a.log.Warn("recognition failed: ", result.Reason, " ", result.Detail)
			a.console.Printf("Speech recognition error: %s\n", result.Reason)
			continue
		}

		if IsGoBackPhrase(result.Text) {
			a.console.Println("Going back to the menu...")
			return StateMainMenu, nil
		}
		if strings.TrimSpace(result.Text) == "" {
			continue
		}

		a.ProcessQuestion(ctx, result.Text, ModeSpeech)
		if err := ctx.Err(); err != nil {
			return StateTerminated, err
		}
	}
}

// ProcessQuestion asks the knowledge base, labels the question's sentiment
// and renders every returned answer in service order. In speech mode plain
// text answers are spoken too.
func (a *Assistant) ProcessQuestion(ctx context.Context, question string, mode Mode) {
	a.log.Info("question: ", question)

	answers, err := a.qa.GetAnswers(ctx, question)
	if err != nil {
		a.reportFailure(err)
		return
	}

	sentiment, err := a.sentiment.AnalyzeSentiment(ctx, question)
	if err != nil {
		a.reportFailure(err)
		return
	}
	a.log.Infof("%d answers, sentiment %s", len(answers), sentiment)

	a.console.Clear()
	a.console.Printf("Sentiment: %s\n", sentiment)

	for _, answer := range answers {
		a.console.Printf("Q:%s\n", question)

		if mode == ModeSpeech && !speech.IsSSML(answer.Answer) {
			result := a.speech.SpeakText(ctx, answer.Answer)
			if result.Reason == speech.ReasonSynthesizingAudioCompleted {
				a.console.Println("Speaking Answer...")
			} else {
				a.log.Warn("synthesis failed: ", result.Reason, " ", result.Detail)
				a.console.Printf("Speech synthesis error: %s\n", result.Reason)
			}
		}
		a.console.Printf("A:%s\n", answer.Answer)
	}
}

func (a *Assistant) reportFailure(err error) {
	a.log.Error("question failed: ", err)
	a.console.Printf("Could not answer the question: %s\n", err)
}

// IsBackCommand reports whether input is the text sub-loop's exit command.
func IsBackCommand(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), backCommand)
}

// IsGoBackPhrase reports whether a transcript asks to leave the speech
// sub-loop.
func IsGoBackPhrase(phrase string) bool {
	lower := strings.ToLower(phrase)
	for _, escape := range escapePhrases {
		if strings.Contains(lower, escape) {
			return true
		}
	}
	return false
}
