package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesWindow(t *testing.T) {
	limiter := NewRateLimiter(3, 100*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("conn-1"), "Request %d should fit the budget", i+1)
	}
	assert.False(t, limiter.Allow("conn-1"), "Fourth request should be rejected")

	time.Sleep(150 * time.Millisecond)
	assert.True(t, limiter.Allow("conn-1"), "Budget should recover after the window passes")
}

func TestRateLimiterPerConnection(t *testing.T) {
	limiter := NewRateLimiter(1, time.Second)

	assert.True(t, limiter.Allow("conn-1"))
	assert.False(t, limiter.Allow("conn-1"))
	assert.True(t, limiter.Allow("conn-2"), "Connections have independent budgets")
}

func TestRateLimiterRemoveConnection(t *testing.T) {
	limiter := NewRateLimiter(1, time.Second)

	assert.True(t, limiter.Allow("conn-1"))
	assert.False(t, limiter.Allow("conn-1"))

	limiter.RemoveConnection("conn-1")
	assert.True(t, limiter.Allow("conn-1"), "Removal resets the budget")
}

func TestConnectionHealthTracking(t *testing.T) {
	health := NewConnectionHealth()

	health.UpdateActivity("conn-1")
	health.UpdateActivity("conn-2")

	assert.Empty(t, health.InactiveConnections(time.Minute))

	time.Sleep(20 * time.Millisecond)
	health.UpdateActivity("conn-2")

	inactive := health.InactiveConnections(15 * time.Millisecond)
	assert.Equal(t, []string{"conn-1"}, inactive)

	health.RemoveConnection("conn-1")
	health.UpdateActivity("conn-2")
	assert.Empty(t, health.InactiveConnections(15*time.Millisecond), "Removed connections are not reported")
}

func TestValidateMessageTypeByScope(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(ValidateMessageType(ScopePlayer, MsgPing))
	assert.Error(ValidateMessageType(ScopePlayer, MsgTurnAction))

	assert.NoError(ValidateMessageType(ScopeGame, MsgTurnAction))
	assert.NoError(ValidateMessageType(ScopeGame, MsgGetState))
	assert.NoError(ValidateMessageType(ScopeGame, MsgAbandon))
	assert.Error(ValidateMessageType(ScopeGame, MsgJoinQueue))

	assert.NoError(ValidateMessageType(ScopeMatchmaking, MsgJoinQueue))
	assert.NoError(ValidateMessageType(ScopeMatchmaking, MsgLeaveQueue))
	assert.Error(ValidateMessageType(ScopeMatchmaking, MsgAbandon))

	assert.Error(ValidateMessageType(ScopeGame, "bogus"))
	assert.Error(ValidateMessageType(ScopeGame, ""))
}

func TestValidatePlayerName(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(ValidatePlayerName("Ayo"))
	assert.NoError(ValidatePlayerName("12345678901234567890"))
	assert.Error(ValidatePlayerName(""))
	assert.Error(ValidatePlayerName("123456789012345678901"))
}
