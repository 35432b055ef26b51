package assistant

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bz888/pubgqna/internal/cognitive"
	"github.com/bz888/pubgqna/internal/speech"
	"github.com/bz888/pubgqna/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const clearSequence = "\033[H\033[2J"

type MockQuestionAnswerer struct {
	mock.Mock
}

func (m *MockQuestionAnswerer) GetAnswers(ctx context.Context, question string) ([]cognitive.Answer, error) {
	args := m.Called(ctx, question)
	answers, _ := args.Get(0).([]cognitive.Answer)
	return answers, args.Error(1)
}

type MockSentimentAnalyzer struct {
	mock.Mock
}

func (m *MockSentimentAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (cognitive.Sentiment, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(cognitive.Sentiment), args.Error(1)
}

type MockSpeech struct {
	mock.Mock
}

func (m *MockSpeech) RecognizeOnce(ctx context.Context) speech.RecognitionResult {
	args := m.Called(ctx)
	return args.Get(0).(speech.RecognitionResult)
}

func (m *MockSpeech) SpeakText(ctx context.Context, text string) speech.SynthesisResult {
	args := m.Called(ctx, text)
	return args.Get(0).(speech.SynthesisResult)
}

type fixture struct {
	qa        *MockQuestionAnswerer
	sentiment *MockSentimentAnalyzer
	speech    *MockSpeech
	out       *bytes.Buffer
}

func newFixture() *fixture {
	return &fixture{
		qa:        new(MockQuestionAnswerer),
		sentiment: new(MockSentimentAnalyzer),
		speech:    new(MockSpeech),
		out:       new(bytes.Buffer),
	}
}

func (f *fixture) assistant(input string) *Assistant {
	return New(f.qa, f.sentiment, f.speech, ui.NewTerminal(strings.NewReader(input), f.out))
}

func recognized(text string) speech.RecognitionResult {
	return speech.RecognitionResult{Reason: speech.ReasonRecognizedSpeech, Text: text}
}

var spoken = speech.SynthesisResult{Reason: speech.ReasonSynthesizingAudioCompleted}

func TestRunEndToEndTextQuestion(t *testing.T) {
	f := newFixture()
	question := "How many players per match?"
	f.qa.On("GetAnswers", mock.Anything, question).
		Return([]cognitive.Answer{{Answer: "100 players per match", ConfidenceScore: 0.9}}, nil).Once()
	f.sentiment.On("AnalyzeSentiment", mock.Anything, question).
		Return(cognitive.SentimentNeutral, nil).Once()

	err := f.assistant("1\n" + question + "\nback\n3\n").Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, f.out.String(),
		clearSequence+"Sentiment: Neutral\nQ:How many players per match?\nA:100 players per match\n")
	assert.Contains(t, f.out.String(), "Exiting the QnA application...")
	f.qa.AssertExpectations(t)
	f.sentiment.AssertExpectations(t)
	f.speech.AssertNotCalled(t, "SpeakText", mock.Anything, mock.Anything)
}

func TestTextBackCommandSkipsServices(t *testing.T) {
	for _, back := range []string{"back", "BACK", "  Back  ", "bAcK\t"} {
		f := newFixture()

		err := f.assistant("1\n" + back + "\n3\n").Run(context.Background())
		require.NoError(t, err)

		f.qa.AssertNotCalled(t, "GetAnswers", mock.Anything, mock.Anything)
		f.sentiment.AssertNotCalled(t, "AnalyzeSentiment", mock.Anything, mock.Anything)
		// menu shown twice: on start and after returning
		assert.Equal(t, 2, strings.Count(f.out.String(), "Welcome to PUBG:BATTLEGROUNDS Question and Answers."), back)
	}
}

func TestTextBlankQuestionIsIgnored(t *testing.T) {
	f := newFixture()

	err := f.assistant("1\n   \n\nback\n3\n").Run(context.Background())
	require.NoError(t, err)

	f.qa.AssertNotCalled(t, "GetAnswers", mock.Anything, mock.Anything)
	assert.Equal(t, 3, strings.Count(f.out.String(), "Enter your question (type 'back' to go back to menu): "))
}

func TestInvalidMenuChoice(t *testing.T) {
	f := newFixture()

	err := f.assistant("4\nquit\n 3 \n").Run(context.Background())
	require.NoError(t, err)

	out := f.out.String()
	assert.Equal(t, 2, strings.Count(out, "Invalid choice. Please select a valid option."))
	assert.Equal(t, 3, strings.Count(out, "3. Quit"))
	// the screen is only cleared once, so the error stays visible
	assert.Equal(t, 1, strings.Count(out, clearSequence))
	assert.Contains(t, out, "Exiting the QnA application...")
}

func TestRunEndsOnEOF(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.assistant("").Run(context.Background()))

	f = newFixture()
	f.qa.On("GetAnswers", mock.Anything, "What is PUBG").Return([]cognitive.Answer{}, nil).Once()
	f.sentiment.On("AnalyzeSentiment", mock.Anything, "What is PUBG").Return(cognitive.SentimentNeutral, nil).Once()

	require.NoError(t, f.assistant("1\nWhat is PUBG").Run(context.Background()))
	f.qa.AssertExpectations(t)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.speech.On("RecognizeOnce", mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(speech.RecognitionResult{Reason: speech.ReasonCanceled, Detail: "context canceled"}).Once()

	require.NoError(t, f.assistant("2\n").Run(ctx))
	f.speech.AssertExpectations(t)
	assert.NotContains(t, f.out.String(), "Speech recognition error")
}

func TestSpeechEscapePhrasesReturnToMenu(t *testing.T) {
	for _, phrase := range []string{"Go back", "please RETURN TO MENU now", "back to menu.", "I want to go back"} {
		f := newFixture()
		f.speech.On("RecognizeOnce", mock.Anything).Return(recognized(phrase)).Once()

		err := f.assistant("2\n3\n").Run(context.Background())
		require.NoError(t, err)

		assert.Contains(t, f.out.String(), "Going back to the menu...", phrase)
		f.qa.AssertNotCalled(t, "GetAnswers", mock.Anything, mock.Anything)
		f.sentiment.AssertNotCalled(t, "AnalyzeSentiment", mock.Anything, mock.Anything)
		f.speech.AssertExpectations(t)
	}
}

func TestSpeechRecognitionFailureIsReportedAndSkipped(t *testing.T) {
	f := newFixture()
	f.speech.On("RecognizeOnce", mock.Anything).
		Return(speech.RecognitionResult{Reason: speech.ReasonNoMatch, Detail: "InitialSilenceTimeout"}).Once()
	f.speech.On("RecognizeOnce", mock.Anything).Return(recognized("go back")).Once()

	err := f.assistant("2\n3\n").Run(context.Background())
	require.NoError(t, err)

	out := f.out.String()
	assert.Contains(t, out, "Speech recognition error: NoMatch")
	assert.Equal(t, 2, strings.Count(out, "Speak your question (or say 'go back' to return to the menu)."))
	f.qa.AssertNotCalled(t, "GetAnswers", mock.Anything, mock.Anything)
	f.speech.AssertExpectations(t)
}

func TestSpeechQuestionSpeaksPlainAnswers(t *testing.T) {
	f := newFixture()
	question := "Who makes PUBG?"
	f.speech.On("RecognizeOnce", mock.Anything).Return(recognized(question)).Once()
	f.speech.On("RecognizeOnce", mock.Anything).Return(recognized("Go back.")).Once()
	f.qa.On("GetAnswers", mock.Anything, question).Return([]cognitive.Answer{
		{Answer: "KRAFTON"},
		{Answer: "<speak>PUBG Studios</speak>"},
	}, nil).Once()
	f.sentiment.On("AnalyzeSentiment", mock.Anything, question).Return(cognitive.SentimentNeutral, nil).Once()
	f.speech.On("SpeakText", mock.Anything, "KRAFTON").Return(spoken).Once()

	err := f.assistant("2\n3\n").Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, f.out.String(), clearSequence+"Sentiment: Neutral\n"+
		"Q:Who makes PUBG?\nSpeaking Answer...\nA:KRAFTON\n"+
		"Q:Who makes PUBG?\nA:<speak>PUBG Studios</speak>\n")
	f.speech.AssertNumberOfCalls(t, "SpeakText", 1)
	f.speech.AssertExpectations(t)
}

func TestProcessQuestionOrderAndLayout(t *testing.T) {
	f := newFixture()
	question := "Best landing spot?"

	var calls []string
	f.qa.On("GetAnswers", mock.Anything, question).Run(func(mock.Arguments) { calls = append(calls, "qa") }).
		Return([]cognitive.Answer{
			{Answer: "Pochinki", ConfidenceScore: 0.2},
			{Answer: "School", ConfidenceScore: 0.8},
			{Answer: "Pochinki", ConfidenceScore: 0.1},
		}, nil).Once()
	f.sentiment.On("AnalyzeSentiment", mock.Anything, question).Run(func(mock.Arguments) { calls = append(calls, "sentiment") }).
		Return(cognitive.SentimentPositive, nil).Once()

	f.assistant("").ProcessQuestion(context.Background(), question, ModeText)

	assert.Equal(t, []string{"qa", "sentiment"}, calls)
	assert.Equal(t, clearSequence+"Sentiment: Positive\n"+
		"Q:Best landing spot?\nA:Pochinki\n"+
		"Q:Best landing spot?\nA:School\n"+
		"Q:Best landing spot?\nA:Pochinki\n", f.out.String())
	f.qa.AssertNumberOfCalls(t, "GetAnswers", 1)
	f.sentiment.AssertNumberOfCalls(t, "AnalyzeSentiment", 1)
}

func TestProcessQuestionNoAnswers(t *testing.T) {
	f := newFixture()
	f.qa.On("GetAnswers", mock.Anything, "??").Return([]cognitive.Answer{}, nil).Once()
	f.sentiment.On("AnalyzeSentiment", mock.Anything, "??").Return(cognitive.SentimentMixed, nil).Once()

	f.assistant("").ProcessQuestion(context.Background(), "??", ModeSpeech)

	assert.Equal(t, clearSequence+"Sentiment: Mixed\n", f.out.String())
	f.speech.AssertNotCalled(t, "SpeakText", mock.Anything, mock.Anything)
}

func TestProcessQuestionTextModeNeverSpeaks(t *testing.T) {
	f := newFixture()
	f.qa.On("GetAnswers", mock.Anything, "q").Return([]cognitive.Answer{{Answer: "plain"}, {Answer: "<speak>ssml</speak>"}}, nil)
	f.sentiment.On("AnalyzeSentiment", mock.Anything, "q").Return(cognitive.SentimentNeutral, nil)

	f.assistant("").ProcessQuestion(context.Background(), "q", ModeText)

	f.speech.AssertNotCalled(t, "SpeakText", mock.Anything, mock.Anything)
	assert.NotContains(t, f.out.String(), "Speaking Answer...")
}

func TestProcessQuestionSynthesisFailureFallsBackToText(t *testing.T) {
	f := newFixture()
	f.qa.On("GetAnswers", mock.Anything, "q").Return([]cognitive.Answer{{Answer: "plain"}}, nil)
	f.sentiment.On("AnalyzeSentiment", mock.Anything, "q").Return(cognitive.SentimentNegative, nil)
	f.speech.On("SpeakText", mock.Anything, "plain").
		Return(speech.SynthesisResult{Reason: speech.ReasonCanceled, Detail: "no output device"}).Once()

	f.assistant("").ProcessQuestion(context.Background(), "q", ModeSpeech)

	assert.Equal(t, clearSequence+"Sentiment: Negative\nQ:q\nSpeech synthesis error: Canceled\nA:plain\n", f.out.String())
	f.speech.AssertExpectations(t)
}

func TestProcessQuestionServiceFailures(t *testing.T) {
	f := newFixture()
	f.qa.On("GetAnswers", mock.Anything, "q").Return(nil, errors.New("get answers: service returned 401")).Once()

	f.assistant("").ProcessQuestion(context.Background(), "q", ModeText)

	assert.Equal(t, "Could not answer the question: get answers: service returned 401\n", f.out.String())
	f.sentiment.AssertNotCalled(t, "AnalyzeSentiment", mock.Anything, mock.Anything)

	f = newFixture()
	f.qa.On("GetAnswers", mock.Anything, "q").Return([]cognitive.Answer{{Answer: "a"}}, nil).Once()
	f.sentiment.On("AnalyzeSentiment", mock.Anything, "q").
		Return(cognitive.Sentiment(""), errors.New("analyze sentiment: timeout")).Once()

	f.assistant("").ProcessQuestion(context.Background(), "q", ModeText)

	assert.Equal(t, "Could not answer the question: analyze sentiment: timeout\n", f.out.String())
	assert.NotContains(t, f.out.String(), "A:a")
}

func TestIsGoBackPhrase(t *testing.T) {
	assert.True(t, IsGoBackPhrase("Go back."))
	assert.True(t, IsGoBackPhrase("Could you RETURN TO MENU?"))
	assert.True(t, IsGoBackPhrase("back to menu"))
	assert.False(t, IsGoBackPhrase("How do I get back in the game?"))
	assert.False(t, IsGoBackPhrase("menu"))
	assert.False(t, IsGoBackPhrase(""))
}

func TestIsBackCommand(t *testing.T) {
	assert.True(t, IsBackCommand("back"))
	assert.True(t, IsBackCommand(" BACK\r"))
	assert.False(t, IsBackCommand("go back"))
	assert.False(t, IsBackCommand("backpack size?"))
}
