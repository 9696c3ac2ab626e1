package core

import "testing"

func TestTimerDispatchOrder(t *testing.T) {
	resetTimers()
	defer resetTimers()

	var order []int
	mk := func(id int, wake uint32) *Timer {
		return &Timer{
			WakeTime: wake,
			Handler: func(*Timer) uint8 {
				order = append(order, id)
				return SF_DONE
			},
		}
	}

	ScheduleTimer(mk(3, 300))
	ScheduleTimer(mk(1, 100))
	ScheduleTimer(mk(2, 200))
	ScheduleTimer(mk(4, 200)) // Same wake time as 2, runs after it

	SetTime(250)
	ProcessTimers()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 4 {
		t.Fatalf("dispatch order: got %v, want [1 2 4]", order)
	}

	SetTime(300)
	ProcessTimers()
	if len(order) != 4 || order[3] != 3 {
		t.Errorf("dispatch order: got %v, want [1 2 4 3]", order)
	}
	if timerList != nil {
		t.Error("timer list should be empty")
	}
}

func TestTimerReschedule(t *testing.T) {
	resetTimers()
	defer resetTimers()

	runs := 0
	timer := &Timer{
		WakeTime: 10,
		Handler: func(t *Timer) uint8 {
			runs++
			t.WakeTime += 10
			return SF_RESCHEDULE
		},
	}
	ScheduleTimer(timer)

	SetTime(55)
	ProcessTimers()
	if runs != 5 {
		t.Errorf("runs: got %d, want 5", runs)
	}
	if timer.WakeTime != 60 {
		t.Errorf("next wake: got %d, want 60", timer.WakeTime)
	}
}

func TestTimerWraparound(t *testing.T) {
	resetTimers()
	defer resetTimers()

	runs := 0
	timer := &Timer{
		WakeTime: 0xFFFFFFF0,
		Handler: func(t *Timer) uint8 {
			runs++
			t.WakeTime += 0x10
			return SF_RESCHEDULE
		},
	}
	ScheduleTimer(timer)

	SetTime(0xFFFFFFF0)
	ProcessTimers()
	if runs != 1 {
		t.Fatalf("runs before wrap: got %d, want 1", runs)
	}

	// Clock wrapped to zero: the rescheduled timer is due
	SetTime(0)
	ProcessTimers()
	if runs != 2 {
		t.Errorf("runs after wrap: got %d, want 2", runs)
	}
	if timer.WakeTime != 0x10 {
		t.Errorf("next wake: got 0x%X, want 0x10", timer.WakeTime)
	}
}

func TestCancelTimer(t *testing.T) {
	resetTimers()
	defer resetTimers()

	fired := map[string]bool{}
	mk := func(name string, wake uint32) *Timer {
		return &Timer{
			WakeTime: wake,
			Handler: func(*Timer) uint8 {
				fired[name] = true
				return SF_DONE
			},
		}
	}

	a, b, c := mk("a", 10), mk("b", 20), mk("c", 30)
	ScheduleTimer(a)
	ScheduleTimer(b)
	ScheduleTimer(c)

	CancelTimer(b)
	CancelTimer(a)
	CancelTimer(&Timer{}) // Not scheduled: no-op

	SetTime(100)
	ProcessTimers()
	if fired["a"] || fired["b"] {
		t.Errorf("cancelled timers fired: %v", fired)
	}
	if !fired["c"] {
		t.Error("timer c should have fired")
	}
}

func TestTimerConversions(t *testing.T) {
	if got := TimerFromUS(50); got != 50 {
		t.Errorf("TimerFromUS(50) = %d, want 50 at 1MHz", got)
	}
	if got := TimerToUS(108000); got != 108000 {
		t.Errorf("TimerToUS(108000) = %d", got)
	}
	if SampleTicks != 50 {
		t.Errorf("SampleTicks = %d, want 50", SampleTicks)
	}
}
