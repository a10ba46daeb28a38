// Package discovery enumerates the member account's tagged VPCs and each
// VPC's live hosted zone associations.
package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"zonevpcsync/catalog"
)

// VPC is a member-account VPC carrying the reconciliation tag.
type VPC struct {
	ID   string
	Tags map[string]string
}

type VPCsAPI interface {
	DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
}

type ZoneAssociationsAPI interface {
	ListHostedZonesByVPC(ctx context.Context, params *route53.ListHostedZonesByVPCInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByVPCOutput, error)
}

// ListTaggedVPCs returns every VPC carrying tagKey, filtered server-side.
// Usually a single page, but pagination is honored when the API returns it.
func ListTaggedVPCs(ctx context.Context, api VPCsAPI, tagKey string) ([]VPC, error) {
	var vpcs []VPC

	var token *string
	for {
		out, err := api.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("tag-key"), Values: []string{tagKey}},
			},
			NextToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("describe vpcs: %w", err)
		}

		for _, v := range out.Vpcs {
			tags := make(map[string]string, len(v.Tags))
			for _, tag := range v.Tags {
				tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
			}
			vpcs = append(vpcs, VPC{ID: aws.ToString(v.VpcId), Tags: tags})
		}

		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return vpcs, nil
}

// ListAssociatedZones returns the normalized ids of every hosted zone
// currently associated with the VPC, paging until the token is exhausted.
func ListAssociatedZones(ctx context.Context, api ZoneAssociationsAPI, vpcID, region string) ([]string, error) {
	var ids []string

	var token *string
	for {
		out, err := api.ListHostedZonesByVPC(ctx, &route53.ListHostedZonesByVPCInput{
			VPCId:     aws.String(vpcID),
			VPCRegion: types.VPCRegion(region),
			NextToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list hosted zones for vpc %s: %w", vpcID, err)
		}

		for _, summary := range out.HostedZoneSummaries {
			ids = append(ids, catalog.NormalizeZoneID(aws.ToString(summary.HostedZoneId)))
		}

		if out.NextToken == nil {
			break
		}
		token = out.NextToken
	}
	return ids, nil
}
