/*
aggregate.go - Period aggregation over reconciled days

PURPOSE:
  Folds an ordered sequence of DayRecords into a PeriodSummary. The fold is
  pure and its totals are order-independent: re-running it over the same
  records, in any order, yields the same sums. Day ordering matters only
  for display and is preserved by the caller.

BUCKETS:
  - complete / incomplete day counts
  - justified and day_off days count toward neither, tracked separately
  - extras: sum of positive balances outside tolerance
  - shortages: sum of absolute negative balances
  - net = extras - shortages
  - edited punches: count and total correction delta

SEE ALSO:
  - reconcile.go: Produces the DayRecords this consumes
*/
package engine

// AggregatePeriod folds day records into period totals.
func AggregatePeriod(period Period, days []DayRecord) PeriodSummary {
	s := PeriodSummary{Period: period}
	for _, d := range days {
		s.TotalWorkedMinutes += d.WorkedMinutes

		if d.BalanceMinutes > 0 {
			s.TotalExtraMinutes += d.BalanceMinutes
		} else if d.BalanceMinutes < 0 {
			s.TotalShortageMinutes += -d.BalanceMinutes
		}

		switch d.Status {
		case DayComplete:
			s.CompleteDays++
		case DayIncomplete:
			s.IncompleteDays++
		case DayJustified:
			s.JustifiedDays++
		case DayOff:
			s.DayOffDays++
		}

		s.EditedPunches += d.EditedPunches
		s.EditedDeltaMinutes += d.EditedDeltaMinutes
	}
	s.NetBalanceMinutes = s.TotalExtraMinutes - s.TotalShortageMinutes
	return s
}
