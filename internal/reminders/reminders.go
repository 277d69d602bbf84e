// Package reminders decides which due-date notifications to send. The
// decision is pure: the worker binary feeds it a snapshot and a clock and
// publishes whatever comes back.
package reminders

import (
	"time"

	"hearth/internal/amqp"
	"hearth/internal/core"
	"hearth/internal/tracker"
)

// Check kinds. The morning check covers today's bills plus the 14-days-out
// fluctuating scan; the afternoon check warns about tomorrow.
type Check int

const (
	MorningCheck Check = iota
	AfternoonCheck
)

// scanLeadDays is how far ahead fluctuating bills get an update reminder.
const scanLeadDays = 14

// Due returns the reminders owed for one check run.
func Due(snap tracker.Snapshot, now time.Time, check Check) []amqp.ReminderMessage {
	var out []amqp.ReminderMessage

	target := core.DayOf(now)
	kind := amqp.ReminderDueToday
	if check == AfternoonCheck {
		target = target.AddDays(1)
		kind = amqp.ReminderDueTomorrow
	}

	for _, item := range snap.RecurringItems {
		if item.NextDate == nil || !target.Contains(*item.NextDate) {
			continue
		}
		out = append(out, amqp.ReminderMessage{
			Kind:        kind,
			ItemID:      item.ID,
			Description: item.Description,
			DueDate:     *item.NextDate,
			Timestamp:   now,
		})
	}

	if check == MorningCheck {
		ahead := core.DayOf(now).AddDays(scanLeadDays)
		for _, item := range snap.RecurringItems {
			if !item.IsFluctuating || item.NextDate == nil || !ahead.Contains(*item.NextDate) {
				continue
			}
			out = append(out, amqp.ReminderMessage{
				Kind:        amqp.ReminderConfirmAmount,
				ItemID:      item.ID,
				Description: item.Description,
				DueDate:     *item.NextDate,
				Timestamp:   now,
			})
		}
	}
	return out
}
