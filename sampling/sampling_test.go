package sampling

import "testing"

func TestNew_SmallShardScansAll(t *testing.T) {
	for n := 1; n <= 10; n++ {
		p := New(n, 8)
		if !p.ScanAll {
			t.Fatalf("n=%d sampleSize=8: want ScanAll, got sampled K=%d", n, p.K)
		}
		if p.K != n {
			t.Fatalf("n=%d: ScanAll plan should cover all %d entries, got K=%d", n, n, p.K)
		}
	}
}

func TestNew_LargeShardSamples(t *testing.T) {
	p := New(1000, 8)
	if p.ScanAll {
		t.Fatalf("n=1000 sampleSize=8: want sampled plan, got ScanAll")
	}
	if p.K != 8 {
		t.Fatalf("want K=8, got %d", p.K)
	}
}

func TestNew_SampleSizeClampedToN(t *testing.T) {
	p := New(3, 8)
	if !p.ScanAll || p.K != 3 {
		t.Fatalf("n=3 sampleSize=8 should scan all 3, got %+v", p)
	}
}

func TestNew_BoundaryAtKPlus2(t *testing.T) {
	// n == k+2 is the last n that must still scan all.
	p := New(10, 8)
	if !p.ScanAll {
		t.Fatalf("n=10 sampleSize=8 (k+2 boundary): want ScanAll, got %+v", p)
	}
	// n == k+3 is the first n that should sample.
	p = New(11, 8)
	if p.ScanAll {
		t.Fatalf("n=11 sampleSize=8: want sampled plan, got ScanAll")
	}
}

func TestNew_EmptyShard(t *testing.T) {
	p := New(0, 8)
	if !p.ScanAll || p.K != 0 {
		t.Fatalf("n=0: want {ScanAll:true K:0}, got %+v", p)
	}
}
