// Package catalog loads the owner account's private hosted zones and their
// tags into an in-memory snapshot for a single reconciliation run.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"zonevpcsync/metrics"
)

const (
	zoneIDPrefix = "/hostedzone/"

	listPageSize = 100
	tagBatchSize = 10 // ListTagsForResources accepts at most 10 resource ids
)

// Zone is a private hosted zone snapshot. ID is the bare zone id with the
// resource-path prefix stripped; it is the only id form used for comparison.
type Zone struct {
	ID      string
	Name    string
	Private bool
	Tags    map[string]string
}

// HostedZonesAPI is the slice of the Route 53 client the loader needs.
type HostedZonesAPI interface {
	ListHostedZones(ctx context.Context, params *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
	ListTagsForResources(ctx context.Context, params *route53.ListTagsForResourcesInput, optFns ...func(*route53.Options)) (*route53.ListTagsForResourcesOutput, error)
}

type Loader struct {
	api     HostedZonesAPI
	metrics *metrics.Metrics
}

func NewLoader(api HostedZonesAPI, metrics *metrics.Metrics) *Loader {
	return &Loader{api: api, metrics: metrics}
}

// Load fetches every private hosted zone and attaches its tags. Any API
// failure aborts the load; the caller treats that as fatal to the run.
func (l *Loader) Load(ctx context.Context) ([]Zone, error) {
	var zones []Zone

	var marker *string
	for {
		out, err := l.api.ListHostedZones(ctx, &route53.ListHostedZonesInput{
			Marker:   marker,
			MaxItems: aws.Int32(listPageSize),
		})
		if err != nil {
			l.metrics.IncAWSRequest("route53", "ListHostedZones", false)
			return nil, fmt.Errorf("list hosted zones: %w", err)
		}
		l.metrics.IncAWSRequest("route53", "ListHostedZones", true)

		for _, hz := range out.HostedZones {
			if hz.Config == nil || !hz.Config.PrivateZone {
				continue
			}
			zones = append(zones, Zone{
				ID:      NormalizeZoneID(aws.ToString(hz.Id)),
				Name:    aws.ToString(hz.Name),
				Private: true,
			})
		}

		if !out.IsTruncated {
			break
		}
		marker = out.NextMarker
	}

	if err := l.attachTags(ctx, zones); err != nil {
		return nil, err
	}

	slog.Debug("Loaded zone catalog", "zones", len(zones))
	l.metrics.SetCatalogZones(len(zones))
	return zones, nil
}

func (l *Loader) attachTags(ctx context.Context, zones []Zone) error {
	byID := make(map[string]int, len(zones))
	ids := make([]string, 0, len(zones))
	for i, z := range zones {
		byID[z.ID] = i
		ids = append(ids, z.ID)
	}

	for start := 0; start < len(ids); start += tagBatchSize {
		end := start + tagBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		out, err := l.api.ListTagsForResources(ctx, &route53.ListTagsForResourcesInput{
			ResourceType: types.TagResourceTypeHostedzone,
			ResourceIds:  ids[start:end],
		})
		if err != nil {
			l.metrics.IncAWSRequest("route53", "ListTagsForResources", false)
			return fmt.Errorf("list tags for zones: %w", err)
		}
		l.metrics.IncAWSRequest("route53", "ListTagsForResources", true)

		for _, set := range out.ResourceTagSets {
			i, ok := byID[NormalizeZoneID(aws.ToString(set.ResourceId))]
			if !ok {
				continue
			}
			tags := make(map[string]string, len(set.Tags))
			for _, tag := range set.Tags {
				tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
			}
			zones[i].Tags = tags
		}
	}
	return nil
}

// NormalizeZoneID strips the "/hostedzone/" resource-path prefix. Ids that
// arrive already bare pass through unchanged.
func NormalizeZoneID(id string) string {
	return strings.TrimPrefix(id, zoneIDPrefix)
}
