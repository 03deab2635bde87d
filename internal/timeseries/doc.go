// Package timeseries models periodic data: calendar periods with an explicit
// periodicity (monthly, quarterly, yearly), ordered series of (period, value)
// points, and the aligner that reconciles series of differing periodicities
// and date ranges before elementwise operations.
package timeseries
