package fixmap

import (
	"testing"

	"github.com/ljm2ya/quickex-go/core"
)

func TestFIXSide(t *testing.T) {
	cases := []struct {
		action core.Action
		side   core.Side
		want   string
	}{
		{core.ActionBuy, core.SideYes, FIXSideBuy},
		{core.ActionSell, core.SideNo, FIXSideBuy},
		{core.ActionSell, core.SideYes, FIXSideSell},
		{core.ActionBuy, core.SideNo, FIXSideSell},
	}
	for _, c := range cases {
		if got := FIXSide(c.action, c.side); got != c.want {
			t.Errorf("FIXSide(%s,%s)=%s want %s", c.action, c.side, got, c.want)
		}
	}
}

func TestFIXPriceProjection(t *testing.T) {
	req := core.CreateOrderRequest{NoPrice: 30}
	price, ok := FIXPrice(req)
	if !ok || price != 70 {
		t.Fatalf("FIXPrice(noPrice=30) = %d,%v want 70,true", price, ok)
	}

	req2 := core.CreateOrderRequest{YesPrice: 65}
	price2, ok2 := FIXPrice(req2)
	if !ok2 || price2 != 65 {
		t.Fatalf("FIXPrice(yesPrice=65) = %d,%v want 65,true", price2, ok2)
	}
}

func TestPriceRoundTripInvariant(t *testing.T) {
	for p := 1; p <= 99; p++ {
		for _, side := range []string{FIXSideBuy, FIXSideSell} {
			yes, no := YesNoFromWire(side, p)
			if yes+no != 100 {
				t.Fatalf("yes+no != 100 for side=%s price=%d: yes=%d no=%d", side, p, yes, no)
			}
		}
	}
}

func TestPriceBoundaries(t *testing.T) {
	yes, no := YesNoFromWire(FIXSideBuy, 1)
	if yes != 1 || no != 99 {
		t.Fatalf("boundary price=1: got yes=%d no=%d", yes, no)
	}
	yes, no = YesNoFromWire(FIXSideBuy, 99)
	if yes != 99 || no != 1 {
		t.Fatalf("boundary price=99: got yes=%d no=%d", yes, no)
	}
	yes, no = YesNoFromWire(FIXSideSell, 50)
	if yes != 50 || no != 50 {
		t.Fatalf("price=50 unambiguous: got yes=%d no=%d", yes, no)
	}
}

func TestTimeInForceRoundTrip(t *testing.T) {
	all := []core.TimeInForce{core.TimeInForceDay, core.TimeInForceGTC, core.TimeInForceIOC, core.TimeInForceFOK}
	for _, tif := range all {
		wire := FIXTimeInForce(tif)
		back := DomainTimeInForce(wire)
		if back != tif {
			t.Errorf("TimeInForce round trip broke: %s -> %s -> %s", tif, wire, back)
		}
	}
}

func TestTimeInForceDefaultsToGTC(t *testing.T) {
	if FIXTimeInForce("") != tifToFIX[core.TimeInForceGTC] {
		t.Fatal("unset TimeInForce should default to GTC on send")
	}
	if DomainTimeInForce("z") != core.TimeInForceGTC {
		t.Fatal("unknown FIX TimeInForce char should default to GTC on receive")
	}
}

func TestDomainStatusTable(t *testing.T) {
	cases := map[string]core.OrderStatus{
		"0": core.StatusResting,
		"1": core.StatusResting,
		"A": core.StatusResting,
		"5": core.StatusResting,
		"2": core.StatusExecuted,
		"4": core.StatusCanceled,
		"6": core.StatusCanceled,
		"8": core.StatusRejected,
		"C": core.StatusExpired,
		"Z": core.StatusUnknown,
	}
	for fix, want := range cases {
		if got := DomainStatus(fix); got != want {
			t.Errorf("DomainStatus(%s)=%s want %s", fix, got, want)
		}
	}
}

func TestNewClientOrderIDFitsLengthCeiling(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewClientOrderID()
		if len(id) > 64 {
			t.Fatalf("ClOrdID %q exceeds 64 chars", id)
		}
		if len(id) == 0 {
			t.Fatal("ClOrdID must not be empty")
		}
	}
}

func TestCreateOrderRequestValidate(t *testing.T) {
	valid := core.CreateOrderRequest{Ticker: "TEST-MKT", Action: core.ActionBuy, Side: core.SideYes, Count: 10, YesPrice: 65}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request to pass: %v", err)
	}

	noCount := valid
	noCount.Count = 0
	if err := noCount.Validate(); err == nil {
		t.Fatal("count<=0 must be rejected at the interface boundary")
	}

	noPrice := valid
	noPrice.YesPrice = 0
	noPrice.NoPrice = 0
	if err := noPrice.Validate(); err == nil {
		t.Fatal("missing both prices must be rejected")
	}
}
