package quant

import (
	"context"
	"encoding/json"
	"fmt"
)

// Backend commands.
const (
	CmdBSPrice     = "bs/price_anal"
	CmdBSPlot      = "bs/plot_data"
	CmdHestonPrice = "heston/price_anal"
	CmdHestonPlot  = "heston/plot_data"
	CmdCalibrate   = "heston/calibrate"
	CmdSmilePlot   = "heston/plot"
)

// BSInputs are the Black-Scholes vanilla inputs. IR and DY are the domestic
// rate and dividend yield, TTM the time to maturity in years.
type BSInputs struct {
	Spot   float64 `json:"spot" yaml:"spot"`
	Vol    float64 `json:"vol" yaml:"vol"`
	IR     float64 `json:"ir" yaml:"ir"`
	DY     float64 `json:"dy" yaml:"dy"`
	Strike float64 `json:"strike" yaml:"strike"`
	TTM    float64 `json:"ttm" yaml:"ttm"`
}

func (in BSInputs) Params() Params {
	return NewParams(
		"spot", in.Spot,
		"vol", in.Vol,
		"ir", in.IR,
		"dy", in.DY,
		"strike", in.Strike,
		"ttm", in.TTM,
	)
}

// HestonInputs are the Heston vanilla inputs.
type HestonInputs struct {
	Spot   float64 `json:"spot" yaml:"spot"`
	Var0   float64 `json:"var0" yaml:"var0"`
	IR     float64 `json:"ir" yaml:"ir"`
	DY     float64 `json:"dy" yaml:"dy"`
	Kappa  float64 `json:"kappa" yaml:"kappa"`
	Theta  float64 `json:"theta" yaml:"theta"`
	Xi     float64 `json:"xi" yaml:"xi"`
	Rho    float64 `json:"rho" yaml:"rho"`
	Strike float64 `json:"strike" yaml:"strike"`
	TTM    float64 `json:"ttm" yaml:"ttm"`
}

func (in HestonInputs) Params() Params {
	return NewParams(
		"spot", in.Spot,
		"var0", in.Var0,
		"ir", in.IR,
		"dy", in.DY,
		"kappa", in.Kappa,
		"theta", in.Theta,
		"xi", in.Xi,
		"rho", in.Rho,
		"strike", in.Strike,
		"ttm", in.TTM,
	)
}

// PriceResult is the reply of the price_anal commands. SpotAnnualRange99 is
// only filled by Black-Scholes.
type PriceResult struct {
	PVCall            float64   `json:"pv_call"`
	PVPut             float64   `json:"pv_put"`
	SpotAnnualRange99 []float64 `json:"spot_annual_range_99,omitempty"`
}

// PlotData carries an mpld3 figure description.
type PlotData struct {
	MPLD3 json.RawMessage `json:"mpld3_data"`
}

var (
	bsAxes     = []string{"spot", "vol", "ir", "dy", "strike", "ttm"}
	hestonAxes = []string{"spot", "var0", "ir", "dy", "kappa", "theta", "xi", "rho", "strike", "ttm"}
)

func checkAxis(axis string, allowed []string) error {
	for _, a := range allowed {
		if a == axis {
			return nil
		}
	}
	return fmt.Errorf("unsupported xaxis %q", axis)
}

func (c *Client) BSPrice(ctx context.Context, in BSInputs) (*PriceResult, error) {
	var out PriceResult
	if err := c.Get(ctx, CmdBSPrice, in.Params(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HestonPrice(ctx context.Context, in HestonInputs) (*PriceResult, error) {
	var out PriceResult
	if err := c.Get(ctx, CmdHestonPrice, in.Params(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BSPlot requests call/put values over a range of xaxis.
func (c *Client) BSPlot(ctx context.Context, in BSInputs, xaxis string) (*PlotData, error) {
	if err := checkAxis(xaxis, bsAxes); err != nil {
		return nil, err
	}
	var out PlotData
	if err := c.Get(ctx, CmdBSPlot, in.Params().Add("xaxis", xaxis), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HestonPlot(ctx context.Context, in HestonInputs, xaxis string) (*PlotData, error) {
	if err := checkAxis(xaxis, hestonAxes); err != nil {
		return nil, err
	}
	var out PlotData
	if err := c.Get(ctx, CmdHestonPlot, in.Params().Add("xaxis", xaxis), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quote is one tenor of an FX volatility surface. Vols and risk reversals
// are in percent. RR10/BF10 are optional.
type Quote struct {
	Tenor     string  `json:"tenor"`
	DF        float64 `json:"df"`
	Fwd       float64 `json:"fwd"`
	ATM       float64 `json:"atm"`
	RR25      float64 `json:"rr25"`
	BF25      float64 `json:"bf25"`
	RR10      float64 `json:"rr10,omitempty"`
	BF10      float64 `json:"bf10,omitempty"`
	DeltaType string  `json:"deltaType"`
}

// HestonParams are the model parameters produced by calibration.
type HestonParams struct {
	Var0  float64 `json:"var0"`
	Kappa float64 `json:"kappa"`
	Theta float64 `json:"theta"`
	Xi    float64 `json:"xi"`
	Rho   float64 `json:"rho"`
}

type CalibrationRequest struct {
	Spot        float64
	Quotes      []Quote
	Initial     HestonParams
	Method      string
	PremiumType string
	Objective   string
}

type CalibrationResult struct {
	HestonParams       json.RawMessage `json:"hestonParams"`
	ObjectiveValue     float64         `json:"objectiveValue"`
	ElapsedCalibration string          `json:"elapsedCalibration"`
	ElapsedTime        string          `json:"elapsedTime"`
}

// Calibrate fits Heston to a quoted surface. Quotes and initial parameters
// travel as JSON text inside single query values.
func (c *Client) Calibrate(ctx context.Context, req CalibrationRequest) (*CalibrationResult, error) {
	quotes, err := json.Marshal(req.Quotes)
	if err != nil {
		return nil, err
	}
	ini, err := json.Marshal(req.Initial)
	if err != nil {
		return nil, err
	}
	p := NewParams(
		"spot", req.Spot,
		"input_quotes", string(quotes),
		"ini_params", string(ini),
		"method", req.Method,
		"premium_type", req.PremiumType,
		"objective", req.Objective,
	)
	var out CalibrationResult
	if err := c.Get(ctx, CmdCalibrate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type SmilePlotRequest struct {
	Spot           float64
	Quotes         []Quote
	Params         json.RawMessage
	PremiumType    string
	ObjectiveValue float64
	XAxis          string
	YAxis          string
}

// SmilePlot fetches the calibrated smile plot; the reply is passed through.
func (c *Client) SmilePlot(ctx context.Context, req SmilePlotRequest) (json.RawMessage, error) {
	quotes, err := json.Marshal(req.Quotes)
	if err != nil {
		return nil, err
	}
	hp := req.Params
	if len(hp) == 0 {
		hp = json.RawMessage("{}")
	}
	p := NewParams(
		"spot", req.Spot,
		"input_quotes", string(quotes),
		"heston_params", string(hp),
		"premium_type", req.PremiumType,
		"objective_value", req.ObjectiveValue,
		"xaxis", req.XAxis,
		"yaxis", req.YAxis,
	)
	var out json.RawMessage
	if err := c.Get(ctx, CmdSmilePlot, p, &out); err != nil {
		return nil, err
	}
	return out, nil
}
