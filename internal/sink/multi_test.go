package sink

import (
	"testing"

	"github.com/golang/mock/gomock"

	barmock "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1/mock"
)

func TestMultiSink_FanOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := barmock.NewMockSink(ctrl)
	second := barmock.NewMockSink(ctrl)

	b := finalizedBar(7, 100.0, 1)
	first.EXPECT().OnBarFinalized(b).Times(1)
	second.EXPECT().OnBarFinalized(b).Times(1)

	multi := NewMultiSink(first, second)
	multi.OnBarFinalized(b)
}

func TestMultiSink_Empty(t *testing.T) {
	multi := NewMultiSink()

	// No registered sinks is valid; the bar is simply discarded.
	multi.OnBarFinalized(finalizedBar(1, 100.0, 1))
}
