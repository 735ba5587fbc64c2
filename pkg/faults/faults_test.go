package faults

import (
	"testing"
	"time"
)

func TestDecodeRetryDelay(t *testing.T) {
	cases := []struct {
		name  string
		input int64
		want  RetryDelay
	}{
		{"negative means no suggestion", -1, RetryDelay{NoSuggestion: true}},
		{"zero means retry immediately", 0, RetryDelay{Delay: 0}},
		{"int32 max means do not retry", 1<<31 - 1, RetryDelay{DoNotRetry: true}},
		{"positive means a millisecond delay", 4500, RetryDelay{Delay: 4500 * time.Millisecond}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DecodeRetryDelay(c.input)
			if got != c.want {
				t.Errorf("DecodeRetryDelay(%d) = %+v, want %+v", c.input, got, c.want)
			}
		})
	}
}

func TestClassifySetupResult(t *testing.T) {
	if got := ClassifySetupResult(SetupSuccess, 0); got.Cause != CauseNone {
		t.Errorf("success classified as %v, want CauseNone", got.Cause)
	}
	if got := ClassifySetupResult(SetupErrorRadioNotAvailable, 0); got.Cause != CauseRadioNotAvailable {
		t.Errorf("got %v, want CauseRadioNotAvailable", got.Cause)
	}
	if got := ClassifySetupResult(SetupErrorInvalidArg, 0); got.Cause != CauseUnacceptableNetworkParameter {
		t.Errorf("got %v, want CauseUnacceptableNetworkParameter", got.Cause)
	}
	got := ClassifySetupResult(SetupErrorDataServiceSpecific, 26)
	if got.Cause != CauseDataServiceSpecific || got.Specific != 26 {
		t.Errorf("got %+v, want {CauseDataServiceSpecific 26}", got)
	}
}
