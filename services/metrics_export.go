package services

import (
	"fmt"
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// PrometheusContentType is the Content-Type of WritePrometheus output.
var PrometheusContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// WritePrometheus renders every counter and histogram in the Prometheus text
// exposition format. Families are sorted by name and series by label set so
// output is stable between scrapes.
func (m *InMemoryMetrics) WritePrometheus(w io.Writer) error {
	for _, mf := range m.metricFamilies() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric family %q: %w", mf.GetName(), err)
		}
	}
	return nil
}

func (m *InMemoryMetrics) metricFamilies() []*dto.MetricFamily {
	m.mu.RLock()
	defer m.mu.RUnlock()

	families := make(map[string]*dto.MetricFamily)
	family := func(name string, typ dto.MetricType) *dto.MetricFamily {
		mf, ok := families[name]
		if !ok {
			mf = &dto.MetricFamily{Name: proto.String(name), Type: typ.Enum()}
			families[name] = mf
		}
		return mf
	}

	for _, key := range sortedKeys(m.counters) {
		c := m.counters[key]
		mf := family(c.Name, dto.MetricType_COUNTER)
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label:   labelPairs(c.Tags),
			Counter: &dto.Counter{Value: proto.Float64(float64(c.Value))},
		})
	}

	for _, key := range sortedKeys(m.histograms) {
		h := m.histograms[key]
		buckets := make([]*dto.Bucket, 0, len(durationBuckets))
		for _, b := range durationBuckets {
			buckets = append(buckets, &dto.Bucket{
				CumulativeCount: proto.Uint64(uint64(h.Buckets[b.name])),
				UpperBound:      proto.Float64(b.limit.Seconds()),
			})
		}

		mf := family(h.Name, dto.MetricType_HISTOGRAM)
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: labelPairs(h.Tags),
			Histogram: &dto.Histogram{
				SampleCount: proto.Uint64(uint64(h.Count)),
				SampleSum:   proto.Float64(h.Sum.Seconds()),
				Bucket:      buckets,
			},
		})
	}

	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*dto.MetricFamily, 0, len(names))
	for _, name := range names {
		out = append(out, families[name])
	}
	return out
}

func labelPairs(tags map[string]string) []*dto.LabelPair {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	sort.Strings(names)

	pairs := make([]*dto.LabelPair, 0, len(names))
	for _, k := range names {
		pairs = append(pairs, &dto.LabelPair{Name: proto.String(k), Value: proto.String(tags[k])})
	}
	return pairs
}

func sortedKeys[V any](series map[string]V) []string {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
