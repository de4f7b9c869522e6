package mocktracer

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/opentracing/opentracing-go"
	"github.com/zoobzio/opentracez"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Format is a propagation format token defined by this package.
type Format string

// TraceContext selects the W3C Trace Context and Baggage codec. Carriers
// must implement propagation.TextMapCarrier.
const TraceContext Format = "trace_context"

// Text map field names. Reads match them case-insensitively so HTTP header
// canonicalization is harmless. Baggage keys keep their case under TextMap
// and come back lower-cased under HTTPHeaders.
const (
	fieldPrefix   = "ot-mock-"
	fieldTraceID  = fieldPrefix + "traceid"
	fieldSpanID   = fieldPrefix + "spanid"
	fieldParentID = fieldPrefix + "parentid"
	fieldSampled  = fieldPrefix + "sampled"
	fieldDebugID  = fieldPrefix + "debugid"
	baggagePrefix = fieldPrefix + "baggage-"
)

// WithDefaultCodecs registers the text map codec for opentracing.TextMap
// and opentracing.HTTPHeaders, and the W3C codec for TraceContext.
func WithDefaultCodecs() Option {
	return func(t *MockTracer) {
		for _, format := range []any{opentracing.TextMap, opentracing.HTTPHeaders, TraceContext} {
			injector, extractor, _ := codecFor(format)
			t.injectors[format] = injector
			t.extractors[format] = extractor
		}
	}
}

// codecFor returns the built-in codec for format.
func codecFor(format any) (opentracez.Injector, opentracez.Extractor, bool) {
	switch format {
	case opentracing.TextMap:
		return InjectTextMap, ExtractTextMap, true
	case opentracing.HTTPHeaders:
		return InjectTextMap, ExtractHTTPHeaders, true
	case TraceContext:
		return InjectTraceContext, ExtractTraceContext, true
	default:
		return nil, nil, false
	}
}

// InjectTextMap writes sc into an opentracing.TextMapWriter.
func InjectTextMap(sc opentracez.SpanContext, carrier any) error {
	w, ok := carrier.(opentracing.TextMapWriter)
	if !ok {
		return errors.Wrapf(opentracing.ErrInvalidCarrier, "carrier of type %T", carrier)
	}
	if sc == nil {
		return errors.Wrap(opentracing.ErrInvalidSpanContext, "nil span context")
	}

	w.Set(fieldTraceID, sc.TraceID())
	w.Set(fieldSpanID, sc.SpanID())
	if parentID := sc.ParentID(); parentID != "" {
		w.Set(fieldParentID, parentID)
	}
	w.Set(fieldSampled, strconv.FormatBool(sc.Sampled()))
	if debugID := opentracez.DebugID(sc); debugID != "" {
		w.Set(fieldDebugID, debugID)
	}
	sc.ForeachBaggageItem(func(k, v string) bool {
		w.Set(baggagePrefix+k, v)
		return true
	})
	return nil
}

// ExtractTextMap reads a context from an opentracing.TextMapReader.
// It returns nil, nil when no field of this codec is present.
func ExtractTextMap(carrier any) (opentracez.SpanContext, error) {
	return extractFields(carrier, false)
}

// ExtractHTTPHeaders is ExtractTextMap for header carriers, whose key case
// does not survive transport. Baggage keys are lower-cased.
func ExtractHTTPHeaders(carrier any) (opentracez.SpanContext, error) {
	return extractFields(carrier, true)
}

func extractFields(carrier any, foldBaggage bool) (opentracez.SpanContext, error) {
	r, ok := carrier.(opentracing.TextMapReader)
	if !ok {
		return nil, errors.Wrapf(opentracing.ErrInvalidCarrier, "carrier of type %T", carrier)
	}

	var traceID, spanID, parentID, debugID string
	var sampled, found bool
	items := make(map[string]string)

	err := r.ForeachKey(func(key, val string) error {
		k := strings.ToLower(key)
		switch {
		case k == fieldTraceID:
			traceID = val
		case k == fieldSpanID:
			spanID = val
		case k == fieldParentID:
			parentID = val
		case k == fieldDebugID:
			debugID = val
		case k == fieldSampled:
			b, err := strconv.ParseBool(val)
			if err != nil {
				return errors.Wrapf(opentracing.ErrSpanContextCorrupted, "sampled flag %q", val)
			}
			sampled = b
		case strings.HasPrefix(k, baggagePrefix):
			if foldBaggage {
				items[k[len(baggagePrefix):]] = val
			} else {
				items[key[len(baggagePrefix):]] = val
			}
		default:
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if (traceID == "") != (spanID == "") {
		return nil, errors.Wrapf(opentracing.ErrSpanContextCorrupted,
			"trace id %q and span id %q must be set together", traceID, spanID)
	}

	sc := NewSpanContext(traceID, spanID, sampled, items)
	if parentID != "" {
		sc = sc.WithParentID(parentID)
	}
	if debugID != "" {
		sc = sc.WithDebugID(debugID)
	}
	return sc, nil
}

var w3cPropagator = propagation.NewCompositeTextMapPropagator(
	propagation.TraceContext{},
	propagation.Baggage{},
)

// InjectTraceContext writes sc as W3C traceparent and baggage headers into
// a propagation.TextMapCarrier. Ids must be hex encoded with W3C lengths,
// as produced by RandomIDs.
func InjectTraceContext(sc opentracez.SpanContext, carrier any) error {
	c, ok := carrier.(propagation.TextMapCarrier)
	if !ok {
		return errors.Wrapf(opentracing.ErrInvalidCarrier, "carrier of type %T", carrier)
	}
	if sc == nil {
		return errors.Wrap(opentracing.ErrInvalidSpanContext, "nil span context")
	}

	ctx := context.Background()

	if opentracez.IsValid(sc) {
		traceID, err := trace.TraceIDFromHex(sc.TraceID())
		if err != nil {
			return errors.Wrapf(err, "trace id %q", sc.TraceID())
		}
		spanID, err := trace.SpanIDFromHex(sc.SpanID())
		if err != nil {
			return errors.Wrapf(err, "span id %q", sc.SpanID())
		}
		var flags trace.TraceFlags
		if sc.Sampled() {
			flags = trace.FlagsSampled
		}
		ctx = trace.ContextWithRemoteSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: flags,
			Remote:     true,
		}))
	}

	var members []baggage.Member
	var memberErr error
	sc.ForeachBaggageItem(func(k, v string) bool {
		m, err := baggage.NewMemberRaw(k, v)
		if err != nil {
			memberErr = errors.Wrapf(err, "baggage item %q", k)
			return false
		}
		members = append(members, m)
		return true
	})
	if memberErr != nil {
		return memberErr
	}
	if len(members) > 0 {
		bag, err := baggage.New(members...)
		if err != nil {
			return errors.Wrap(err, "building baggage")
		}
		ctx = baggage.ContextWithBaggage(ctx, bag)
	}

	w3cPropagator.Inject(ctx, c)
	return nil
}

// ExtractTraceContext reads W3C traceparent and baggage headers from a
// propagation.TextMapCarrier. The extracted span id is the remote caller's
// span; spans started as its children record it as their parent id.
func ExtractTraceContext(carrier any) (opentracez.SpanContext, error) {
	c, ok := carrier.(propagation.TextMapCarrier)
	if !ok {
		return nil, errors.Wrapf(opentracing.ErrInvalidCarrier, "carrier of type %T", carrier)
	}

	ctx := w3cPropagator.Extract(context.Background(), c)
	remote := trace.SpanContextFromContext(ctx)
	bag := baggage.FromContext(ctx)

	if !remote.IsValid() && bag.Len() == 0 {
		return nil, nil
	}

	items := make(map[string]string, bag.Len())
	for _, m := range bag.Members() {
		items[m.Key()] = m.Value()
	}

	if !remote.IsValid() {
		// Baggage without trace identity.
		return NewSpanContext("", "", false, items), nil
	}
	return NewSpanContext(remote.TraceID().String(), remote.SpanID().String(), remote.IsSampled(), items), nil
}
