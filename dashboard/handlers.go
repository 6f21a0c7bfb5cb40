package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/YuminosukeSato/oncolens/pipeline"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/pkg/log"
)

var templateFuncs = template.FuncMap{
	"percent": func(p float64) string { return fmt.Sprintf("%.1f%%", 100*p) },
	"number":  func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) },
}

// sliderView is a Slider together with its current value.
type sliderView struct {
	pipeline.Slider
	Value float64
}

type pageData struct {
	Sliders    []sliderView
	RadarURL   template.URL
	Prediction *pipeline.Prediction
	Notice     string
}

type predictRequest struct {
	Features map[string]float64 `json:"features"`
}

type predictResponse struct {
	Prediction *pipeline.Prediction `json:"prediction"`
	Display    map[string]float64   `json:"display"`
}

// display reads the dataset and fits the display ranges.
func (s *Server) display() (*pipeline.Display, error) {
	ds, err := s.loader.Load(s.cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	return pipeline.NewDisplay(ds)
}

func (s *Server) predictor() (*pipeline.Predictor, error) {
	return pipeline.LoadPredictor(s.cfg.Artifacts.ScalerPath, s.cfg.Artifacts.ModelPath)
}

// inputValues starts from the dataset means and overrides every feature given
// as a query parameter. Unknown parameters are ignored.
func inputValues(q url.Values, d *pipeline.Display) (map[string]float64, error) {
	values := d.Defaults()
	for name := range values {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewValidationError(name, "must be a finite number", raw)
		}
		values[name] = v
	}
	return values, nil
}

func (s *Server) index(c echo.Context) error {
	d, err := s.display()
	if err != nil {
		return err
	}
	values, err := inputValues(c.QueryParams(), d)
	if err != nil {
		return err
	}

	q := url.Values{}
	data := pageData{}
	for _, sl := range d.Sliders() {
		data.Sliders = append(data.Sliders, sliderView{Slider: sl, Value: values[sl.Name]})
		q.Set(sl.Name, strconv.FormatFloat(values[sl.Name], 'g', -1, 64))
	}

	// 描画できない値ではレーダーも予測も出さない
	if _, err := d.ScaleForDisplay(values); err != nil {
		notice, ok := userNotice(err)
		if !ok {
			return err
		}
		s.logger.Warn("Display unavailable", err)
		data.Notice = notice
		return c.Render(http.StatusOK, "index.html", data)
	}
	data.RadarURL = template.URL("/radar.svg?" + q.Encode())

	pred, err := s.predictValues(values)
	if notice, ok := userNotice(err); ok {
		s.logger.Warn("Prediction unavailable", err)
		data.Notice = notice
	} else if err != nil {
		return err
	}
	data.Prediction = pred
	return c.Render(http.StatusOK, "index.html", data)
}

// userNotice turns the errors a user can act on into page text.
func userNotice(err error) (string, bool) {
	var (
		artifactErr *errors.ArtifactLoadError
		dimErr      *errors.DimensionMismatchError
		numErr      *errors.NumericalInstabilityError
	)
	switch {
	case err == nil:
		return "", false
	case errors.As(err, &artifactErr):
		return "The model is not available (" + artifactErr.Error() + "). Run the trainer and reload this page.", true
	case errors.As(err, &dimErr):
		return "The model does not match the dataset features (" + dimErr.Error() + "). Retrain the model.", true
	case errors.As(err, &numErr):
		return "These measurements are too extreme for the model to evaluate. Move the sliders back into range.", true
	default:
		return "", false
	}
}

func (s *Server) predictValues(values map[string]float64) (*pipeline.Prediction, error) {
	p, err := s.predictor()
	if err != nil {
		return nil, err
	}
	pred, err := p.Predict(values)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Prediction served",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.DiagnosisKey, pred.Diagnosis,
		log.ConfidenceKey, math.Max(pred.ProbabilityBenign, pred.ProbabilityMalignant),
	)
	return pred, nil
}

func (s *Server) radar(c echo.Context) error {
	d, err := s.display()
	if err != nil {
		return err
	}
	values, err := inputValues(c.QueryParams(), d)
	if err != nil {
		return err
	}
	r, err := d.Radar(values)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := r.Render(&buf, "svg", 0); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) features(c echo.Context) error {
	d, err := s.display()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]pipeline.Slider{"features": d.Sliders()})
}

func (s *Server) predict(c echo.Context) error {
	var req predictRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	pred, err := s.predictValues(req.Features)
	if err != nil {
		return err
	}
	d, err := s.display()
	if err != nil {
		return err
	}
	scaled, err := d.ScaleForDisplay(req.Features)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, predictResponse{Prediction: pred, Display: scaled})
}
