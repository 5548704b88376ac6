package quant

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBSPrice(t *testing.T) {
	var rawQuery string
	c, _ := newBackend(t, func(r *gin.Engine) {
		r.GET("/bs/price_anal", func(ctx *gin.Context) {
			rawQuery = ctx.Request.URL.RawQuery
			ctx.JSON(http.StatusOK, gin.H{
				"spot_annual_range_99": []float64{77.3, 129.3},
				"pv_call":              10.45,
				"pv_put":               5.57,
			})
		})
	})

	res, err := c.BSPrice(context.Background(), BSInputs{Spot: 100, Vol: 0.2, IR: 0.05, DY: 0, Strike: 100, TTM: 1})
	if err != nil {
		t.Fatalf("BSPrice: %v", err)
	}
	if want := "spot=100&vol=0.2&ir=0.05&dy=0&strike=100&ttm=1"; rawQuery != want {
		t.Errorf("query = %q, want %q", rawQuery, want)
	}
	if res.PVCall != 10.45 || res.PVPut != 5.57 || len(res.SpotAnnualRange99) != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestHestonPriceAndPlot(t *testing.T) {
	var plotQuery string
	c, _ := newBackend(t, func(r *gin.Engine) {
		r.GET("/heston/price_anal", func(ctx *gin.Context) {
			if ctx.Query("rho") != "-0.7" || ctx.Query("kappa") != "1.5" {
				ctx.JSON(http.StatusOK, gin.H{"error": gin.H{"str": "bad inputs"}})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"pv_call": 6.1, "pv_put": 3.2})
		})
		r.GET("/heston/plot_data", func(ctx *gin.Context) {
			plotQuery = ctx.Request.URL.RawQuery
			ctx.JSON(http.StatusOK, gin.H{"mpld3_data": gin.H{"axes": []int{}}})
		})
	})

	in := HestonInputs{Spot: 100, Var0: 0.04, IR: 0.01, Kappa: 1.5, Theta: 0.04, Xi: 0.3, Rho: -0.7, Strike: 100, TTM: 1}
	res, err := c.HestonPrice(context.Background(), in)
	if err != nil {
		t.Fatalf("HestonPrice: %v", err)
	}
	if res.PVCall != 6.1 || res.PVPut != 3.2 {
		t.Errorf("result = %+v", res)
	}

	plot, err := c.HestonPlot(context.Background(), in, "rho")
	if err != nil {
		t.Fatalf("HestonPlot: %v", err)
	}
	if string(plot.MPLD3) != `{"axes":[]}` {
		t.Errorf("mpld3 = %s", plot.MPLD3)
	}
	want := "spot=100&var0=0.04&ir=0.01&dy=0&kappa=1.5&theta=0.04&xi=0.3&rho=-0.7&strike=100&ttm=1&xaxis=rho"
	if plotQuery != want {
		t.Errorf("query = %q, want %q", plotQuery, want)
	}
}

func TestPlotRejectsUnknownAxis(t *testing.T) {
	c := NewClient("http://unused.example.com/", PageBase{})
	if _, err := c.BSPlot(context.Background(), BSInputs{}, "rho"); err == nil {
		t.Error("BSPlot accepted rho")
	}
	if _, err := c.HestonPlot(context.Background(), HestonInputs{}, "colour"); err == nil {
		t.Error("HestonPlot accepted colour")
	}
}

func TestCalibrateSendsJSONValues(t *testing.T) {
	var quotes []Quote
	var ini HestonParams
	c, _ := newBackend(t, func(r *gin.Engine) {
		r.GET("/heston/calibrate", func(ctx *gin.Context) {
			if err := json.Unmarshal([]byte(ctx.Query("input_quotes")), &quotes); err != nil {
				ctx.JSON(http.StatusOK, gin.H{"error": gin.H{"str": err.Error()}})
				return
			}
			_ = json.Unmarshal([]byte(ctx.Query("ini_params")), &ini)
			ctx.JSON(http.StatusOK, gin.H{
				"hestonParams":       gin.H{"var0": 0.01},
				"objectiveValue":     0.002,
				"elapsedCalibration": "0:00:01.5",
				"elapsedTime":        "0:00:02",
			})
		})
	})

	res, err := c.Calibrate(context.Background(), CalibrationRequest{
		Spot: 1.1,
		Quotes: []Quote{
			{Tenor: "1M", DF: 0.999, Fwd: 12.5, ATM: 8.1, RR25: -0.5, BF25: 0.2, DeltaType: "Spot"},
			{Tenor: "1Y", DF: 0.98, Fwd: 150, ATM: 9, RR25: -0.8, BF25: 0.3, RR10: -1.4, BF10: 0.9, DeltaType: "Forward"},
		},
		Initial:     HestonParams{Var0: 0.01, Kappa: 1, Theta: 0.01, Xi: 0.5, Rho: -0.3},
		Method:      "SLSQP",
		PremiumType: "Excluded",
		Objective:   "vol",
	})
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if len(quotes) != 2 || quotes[1].Tenor != "1Y" || quotes[1].RR10 != -1.4 {
		t.Errorf("quotes = %+v", quotes)
	}
	if ini.Rho != -0.3 {
		t.Errorf("ini = %+v", ini)
	}
	if res.ObjectiveValue != 0.002 || res.ElapsedTime != "0:00:02" {
		t.Errorf("result = %+v", res)
	}
}

func TestSmilePlotPassesThrough(t *testing.T) {
	c, _ := newBackend(t, func(r *gin.Engine) {
		r.GET("/heston/plot", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"xaxis": ctx.Query("xaxis"), "yaxis": ctx.Query("yaxis")})
		})
	})
	raw, err := c.SmilePlot(context.Background(), SmilePlotRequest{Spot: 1, XAxis: "strike", YAxis: "vol"})
	if err != nil {
		t.Fatalf("SmilePlot: %v", err)
	}
	if string(raw) != `{"xaxis":"strike","yaxis":"vol"}` {
		t.Errorf("raw = %s", raw)
	}
}
