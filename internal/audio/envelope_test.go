package audio

import "testing"

func TestRMSEnvelope(t *testing.T) {
	c := withSilence(sine(440, 0.5, 8000), 0, 0.5)
	env := RMSEnvelope(c, 10)
	if len(env) == 0 {
		t.Fatal("empty envelope")
	}
	// First half loud, second half silent.
	if env[0] < 0.1 {
		t.Errorf("expected speech energy at start, got %g", env[0])
	}
	if last := env[len(env)-1]; last > 0.001 {
		t.Errorf("expected silence at end, got %g", last)
	}
}

func TestSmoothGate(t *testing.T) {
	env := []float64{0, 0, 0.5, 0.5, 0.5, 0, 0, 0, 0, 0}
	gains := SmoothGate(env, 0.1, 0.25, 2, 3)
	if len(gains) != len(env) {
		t.Fatalf("gain length = %d", len(gains))
	}
	if gains[0] != 1 || gains[1] != 1 {
		t.Error("gain must be full before speech")
	}
	if gains[4] != 0.25 {
		t.Errorf("gain must reach floor during speech, got %g", gains[4])
	}
	// Attack ramps over two windows, release over three.
	if !(gains[2] < 1 && gains[2] > gains[3]) {
		t.Errorf("attack should ramp down: %v", gains[:5])
	}
	if !(gains[5] > gains[4] && gains[9] == 1) {
		t.Errorf("release should ramp up to full: %v", gains[5:])
	}
}
