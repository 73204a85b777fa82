package service

import (
	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/timer"
)

// arm schedules effects on the session's timers. Must be called with the
// session locked.
func (s *gameServiceImpl) arm(sess *Session, effects []engine.Effect) {
	for _, effect := range effects {
		sess.Timers.Schedule(effect.Key, effect.Delay, func(tk timer.Ticket) {
			s.fire(sess, effect, tk)
		})
	}
}

// fire runs a delayed effect. The ticket is claimed under the session lock
// so a reset that already cancelled it wins.
func (s *gameServiceImpl) fire(sess *Session, effect engine.Effect, tk timer.Ticket) {
	sess.Lock()
	defer sess.Unlock()
	if !tk.Claim() {
		return
	}

	out, err := sess.Engine.Expire(effect, s.now())
	if err != nil {
		log.WithFields(logrus.Fields{
			"session": sess.ID,
			"effect":  effect.Key,
			"error":   err,
		}).Warn("effect failed")
		return
	}
	s.arm(sess, out.Effects)
	s.persist(sess)

	if s.notifier == nil {
		return
	}
	state := sess.Engine.GetState()
	s.notifier.BroadcastEvent(sess.ID, "effect", &EffectEvent{Effect: effect, Outcome: out, State: state})
	s.notifier.BroadcastToSession(sess.ID, state)
}
