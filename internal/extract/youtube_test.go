package extract

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
)

func TestClientStrategy_ConcurrentIdentitySwaps(t *testing.T) {
	android, ok := NewAndroidClient(time.Second).(*clientStrategy)
	if !ok {
		t.Fatal("android strategy has unexpected type")
	}
	web, ok := NewWebClient(time.Second).(*clientStrategy)
	if !ok {
		t.Fatal("web strategy has unexpected type")
	}
	before := fmt.Sprintf("%+v", youtube.DefaultClient)

	var wg sync.WaitGroup
	for _, s := range []*clientStrategy{android, web} {
		wg.Add(1)
		go func(s *clientStrategy) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				restore := s.swapIdentity()
				restore()
			}
		}(s)
	}
	wg.Wait()

	if after := fmt.Sprintf("%+v", youtube.DefaultClient); after != before {
		t.Errorf("identity global = %s, want %s", after, before)
	}
}
