package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var weekdayKeys = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

// TimeInterval — полуоткрытый интервал [Start, End) рабочего дня в формате HH:MM.
type TimeInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours — недельное расписание врача: день недели -> интервалы приема.
// День без интервалов считается выходным.
type WorkingHours map[string][]TimeInterval

// Validate проверяет формат времени, порядок границ и отсутствие
// пересечений интервалов внутри одного дня.
func (wh WorkingHours) Validate() error {
	valid := make(map[string]bool, len(weekdayKeys))
	for _, key := range weekdayKeys {
		valid[key] = true
	}

	for day, intervals := range wh {
		if !valid[day] {
			return fmt.Errorf("неизвестный день недели: %s", day)
		}

		sorted := make([]TimeInterval, len(intervals))
		copy(sorted, intervals)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Start < sorted[j].Start
		})

		prevEnd := -1
		for _, interval := range sorted {
			start, err := minuteOfDay(interval.Start)
			if err != nil {
				return fmt.Errorf("неверное время начала интервала %q (%s): %w", interval.Start, day, err)
			}
			end, err := minuteOfDay(interval.End)
			if err != nil {
				return fmt.Errorf("неверное время окончания интервала %q (%s): %w", interval.End, day, err)
			}
			if end <= start {
				return fmt.Errorf("интервал %s-%s (%s): окончание должно быть позже начала", interval.Start, interval.End, day)
			}
			if start < prevEnd {
				return fmt.Errorf("интервалы рабочего дня %s пересекаются", day)
			}
			prevEnd = end
		}
	}

	return nil
}

// IsWorkingDay — true, если на день недели даты назначен хотя бы один интервал.
func (wh WorkingHours) IsWorkingDay(date time.Time) bool {
	return len(wh[weekdayKeys[date.Weekday()]]) > 0
}

// IsWithinWorkingHours — true, если время попадает в один из интервалов дня.
// Граница End исключается: слот на 18:00 при интервале до 18:00 недоступен.
func (wh WorkingHours) IsWithinWorkingHours(date time.Time, timeStr string) bool {
	t, err := minuteOfDay(timeStr)
	if err != nil {
		return false
	}

	for _, interval := range wh[weekdayKeys[date.Weekday()]] {
		start, err := minuteOfDay(interval.Start)
		if err != nil {
			continue
		}
		end, err := minuteOfDay(interval.End)
		if err != nil {
			continue
		}
		if t >= start && t < end {
			return true
		}
	}

	return false
}

// Slots возвращает начала слотов всех интервалов дня с шагом step минут.
func (wh WorkingHours) Slots(date time.Time, step int) []string {
	if step <= 0 {
		return nil
	}

	var slots []string
	for _, interval := range wh[weekdayKeys[date.Weekday()]] {
		start, err := minuteOfDay(interval.Start)
		if err != nil {
			continue
		}
		end, err := minuteOfDay(interval.End)
		if err != nil {
			continue
		}
		for m := start; m < end; m += step {
			slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
		}
	}

	sort.Strings(slots)
	return slots
}

// BookedSlotIndex — занятые слоты одного врача: дата -> отсортированные времена.
// Каждая запись индекса соответствует ровно одной неотмененной записи на прием.
type BookedSlotIndex map[string][]string

// IsSlotFree — true, если время отсутствует в занятых слотах даты.
// Сравнение точное, по строке HH:MM.
func (idx BookedSlotIndex) IsSlotFree(date, timeStr string) bool {
	for _, booked := range idx[date] {
		if booked == timeStr {
			return false
		}
	}
	return true
}

// Reserve возвращает копию индекса с добавленным слотом. Повторное
// резервирование занятого слота возвращает ErrSlotAlreadyBooked: вызывающий
// обязан был проверить IsSlotFree, но проверка повторяется на случай гонки.
func (idx BookedSlotIndex) Reserve(date, timeStr string) (BookedSlotIndex, error) {
	if !idx.IsSlotFree(date, timeStr) {
		return nil, ErrSlotAlreadyBooked
	}

	next := idx.clone()
	next[date] = append(next[date], timeStr)
	sort.Strings(next[date])
	return next, nil
}

// Release возвращает копию индекса без указанного слота. Освобождение
// свободного слота не является ошибкой.
func (idx BookedSlotIndex) Release(date, timeStr string) BookedSlotIndex {
	next := idx.clone()

	times := next[date]
	for i, booked := range times {
		if booked == timeStr {
			times = append(times[:i], times[i+1:]...)
			break
		}
	}

	if len(times) == 0 {
		delete(next, date)
	} else {
		next[date] = times
	}

	return next
}

func (idx BookedSlotIndex) clone() BookedSlotIndex {
	next := make(BookedSlotIndex, len(idx))
	for date, times := range idx {
		copied := make([]string, len(times))
		copy(copied, times)
		next[date] = copied
	}
	return next
}

func minuteOfDay(timeStr string) (int, error) {
	t, err := time.Parse(TimeLayout, timeStr)
	if err != nil {
		return 0, errors.New("ожидается формат HH:MM")
	}
	return t.Hour()*60 + t.Minute(), nil
}
