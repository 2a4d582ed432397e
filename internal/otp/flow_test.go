package otp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/event"
	"github.com/utafrali/ApartmentAdmin/pkg/httpclient"
	pkgkafka "github.com/utafrali/ApartmentAdmin/pkg/kafka"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
	"github.com/utafrali/ApartmentAdmin/pkg/validator"
)

const testPhone = "96391234567"

type mockAuthRepository struct {
	mock.Mock
}

func (m *mockAuthRepository) Login(ctx context.Context, input domain.LoginInput) (*domain.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

func (m *mockAuthRepository) SendOTP(ctx context.Context, input domain.SendOTPInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockAuthRepository) VerifyOTP(ctx context.Context, input domain.VerifyOTPInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockAuthRepository) ResetPassword(ctx context.Context, input domain.ResetPasswordInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, text)
}

func (n *recordingNotifier) Error(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, text)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*pkgkafka.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func newTestFlow() (*Flow, *mockAuthRepository, *recordingNotifier, *recordingPublisher) {
	repo := &mockAuthRepository{}
	notifier := &recordingNotifier{}
	pub := &recordingPublisher{}
	audit := event.NewProducer(pub, "", logger.Discard())
	return NewFlow(repo, notifier, audit, logger.Discard()), repo, notifier, pub
}

func serverError(message string) error {
	return &apiclient.ServerError{
		Method: http.MethodPost,
		Path:   "auth/verify-otp",
		Response: &httpclient.ResponseError{
			StatusCode:  http.StatusUnprocessableEntity,
			Message:     message,
			BodyMessage: message,
		},
	}
}

func TestFlow_HappyPath(t *testing.T) {
	flow, repo, notifier, pub := newTestFlow()
	ctx := context.Background()

	repo.On("SendOTP", mock.Anything, domain.SendOTPInput{Phone: testPhone}).Return("", nil).Once()
	repo.On("VerifyOTP", mock.Anything, domain.VerifyOTPInput{Phone: testPhone, OTP: "123456"}).Return("Code accepted", nil).Once()
	repo.On("ResetPassword", mock.Anything, domain.ResetPasswordInput{
		Phone:                testPhone,
		Password:             "newpass1",
		PasswordConfirmation: "newpass1",
	}).Return("", nil).Once()

	assert.Equal(t, StepRequestCode, flow.Step())

	require.NoError(t, flow.SendCode(ctx, testPhone))
	assert.Equal(t, StepAwaitingVerification, flow.Step())
	assert.Equal(t, testPhone, flow.Phone())

	require.NoError(t, flow.Verify(ctx, "123456"))
	assert.Equal(t, StepSetNewPassword, flow.Step())
	assert.Equal(t, testPhone, flow.Phone())

	require.NoError(t, flow.ResetPassword(ctx, "newpass1", "newpass1"))
	assert.Equal(t, StepCompleted, flow.Step())
	assert.False(t, flow.Busy())

	repo.AssertExpectations(t)
	assert.Equal(t, []string{SentMessage, "Code accepted", ResetMessage}, notifier.successes)
	assert.Empty(t, notifier.errors)
	require.Len(t, pub.events, 1)
	assert.Equal(t, event.TypePasswordReset, pub.events[0].EventType)
}

func TestFlow_SendCodeFailureStaysWithInlineError(t *testing.T) {
	flow, repo, notifier, _ := newTestFlow()
	repo.On("SendOTP", mock.Anything, mock.Anything).Return("", serverError("Phone not registered"))

	err := flow.SendCode(context.Background(), testPhone)
	require.Error(t, err)
	assert.Equal(t, StepRequestCode, flow.Step())
	assert.Equal(t, "Phone not registered", flow.Error())
	assert.Empty(t, flow.Phone())
	assert.Equal(t, []string{"Phone not registered"}, notifier.errors)

	flow.DismissError()
	assert.Empty(t, flow.Error())
}

func TestFlow_WrongCodeKeepsVerificationStep(t *testing.T) {
	flow, repo, _, _ := newTestFlow()
	ctx := context.Background()
	repo.On("SendOTP", mock.Anything, mock.Anything).Return("", nil)
	repo.On("VerifyOTP", mock.Anything, mock.Anything).Return("", serverError("The OTP is invalid")).Once()
	repo.On("VerifyOTP", mock.Anything, mock.Anything).Return("", errors.New("connection reset")).Once()

	require.NoError(t, flow.SendCode(ctx, testPhone))

	require.Error(t, flow.Verify(ctx, "000000"))
	assert.Equal(t, StepAwaitingVerification, flow.Step())
	assert.Equal(t, "The OTP is invalid", flow.Error())
	assert.Equal(t, testPhone, flow.Phone())

	require.Error(t, flow.Verify(ctx, "000001"))
	assert.Equal(t, VerifyFailedMessage, flow.Error())
}

func TestFlow_NetworkFailureShowsConnectionMessage(t *testing.T) {
	flow, repo, notifier, _ := newTestFlow()
	netErr := &apiclient.NetworkError{
		Method: http.MethodPost,
		URL:    "http://localhost/api/auth/send-otp",
		Err:    context.DeadlineExceeded,
	}
	repo.On("SendOTP", mock.Anything, mock.Anything).Return("", netErr)

	err := flow.SendCode(context.Background(), testPhone)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StepRequestCode, flow.Step())
	assert.Equal(t, apiclient.NetworkErrorMessage, flow.Error())
	assert.Equal(t, []string{apiclient.NetworkErrorMessage}, notifier.errors)
	assert.False(t, flow.Busy())
}

func TestFlow_ResetFailureFallback(t *testing.T) {
	flow, repo, _, pub := newTestFlow()
	ctx := context.Background()
	repo.On("SendOTP", mock.Anything, mock.Anything).Return("", nil)
	repo.On("VerifyOTP", mock.Anything, mock.Anything).Return("", nil)
	repo.On("ResetPassword", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	require.NoError(t, flow.SendCode(ctx, testPhone))
	require.NoError(t, flow.Verify(ctx, "123456"))

	require.Error(t, flow.ResetPassword(ctx, "newpass1", "newpass1"))
	assert.Equal(t, StepSetNewPassword, flow.Step())
	assert.Equal(t, ResetFailedMessage, flow.Error())
	assert.Empty(t, pub.events)
}

func TestFlow_ValidationNeverReachesNetwork(t *testing.T) {
	flow, repo, _, _ := newTestFlow()
	ctx := context.Background()
	var verr *validator.ValidationError

	require.ErrorAs(t, flow.SendCode(ctx, "abc"), &verr)
	assert.Equal(t, StepRequestCode, flow.Step())

	repo.On("SendOTP", mock.Anything, mock.Anything).Return("", nil)
	require.NoError(t, flow.SendCode(ctx, testPhone))

	require.ErrorAs(t, flow.Verify(ctx, "12ab"), &verr)
	require.ErrorAs(t, flow.Verify(ctx, "12345"), &verr)
	repo.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything)

	repo.On("VerifyOTP", mock.Anything, mock.Anything).Return("", nil)
	require.NoError(t, flow.Verify(ctx, "123456"))

	require.ErrorAs(t, flow.ResetPassword(ctx, "newpass1", "newpass2"), &verr)
	require.ErrorAs(t, flow.ResetPassword(ctx, "short", "short"), &verr)
	repo.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything)
	assert.Empty(t, flow.Error())
}

func TestFlow_WrongStep(t *testing.T) {
	flow, _, _, _ := newTestFlow()
	ctx := context.Background()

	assert.ErrorIs(t, flow.Verify(ctx, "123456"), ErrWrongStep)
	assert.ErrorIs(t, flow.ResetPassword(ctx, "newpass1", "newpass1"), ErrWrongStep)
}

func TestFlow_BackDiscardsWorkingData(t *testing.T) {
	flow, repo, _, _ := newTestFlow()
	ctx := context.Background()
	repo.On("SendOTP", mock.Anything, mock.Anything).Return("", nil)
	repo.On("VerifyOTP", mock.Anything, mock.Anything).Return("", serverError("The OTP is invalid"))

	require.NoError(t, flow.SendCode(ctx, testPhone))
	require.Error(t, flow.Verify(ctx, "000000"))

	require.NoError(t, flow.Back())
	assert.Equal(t, StepRequestCode, flow.Step())
	assert.Empty(t, flow.Phone())
	assert.Empty(t, flow.Error())
}

func TestFlow_OneCallInFlight(t *testing.T) {
	flow, repo, _, _ := newTestFlow()
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	repo.On("SendOTP", mock.Anything, mock.Anything).Return("", nil).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Once()

	done := make(chan error, 1)
	go func() { done <- flow.SendCode(ctx, testPhone) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("SendOTP was not called")
	}

	assert.True(t, flow.Busy())
	assert.ErrorIs(t, flow.SendCode(ctx, testPhone), ErrBusy)
	assert.ErrorIs(t, flow.Back(), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, flow.Busy())
	assert.Equal(t, StepAwaitingVerification, flow.Step())
	repo.AssertNumberOfCalls(t, "SendOTP", 1)
}

func TestNewFlow_StartsFresh(t *testing.T) {
	flow, _, _, _ := newTestFlow()
	assert.Equal(t, StepRequestCode, flow.Step())
	assert.Empty(t, flow.Phone())
	assert.Empty(t, flow.Error())
	assert.Equal(t, "request_code", flow.Step().String())
}
