package reconcile

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"

	"zonevpcsync/catalog"
	"zonevpcsync/discovery"
)

// Input identifies one member account run: which role to assume and which
// region's VPCs to reconcile.
type Input struct {
	RoleArn string
	Region  string
}

// RunReport is returned for audit and test inspection; the run's real output
// is the association calls it made.
type RunReport struct {
	Zones    []catalog.Zone
	Outcomes []Outcome
}

// Outcome records one VPC's reconcile. Err is non-nil when the VPC was
// skipped or its batch aborted partway; Added/Removed list only the
// operations that actually completed.
type Outcome struct {
	VPCID   string
	Added   []string
	Removed []string
	Err     error
}

// OwnerZonesAPI is the owner-account slice of Route 53 used by the engine:
// issuing and revoking cross-account association authorizations.
type OwnerZonesAPI interface {
	CreateVPCAssociationAuthorization(ctx context.Context, params *route53.CreateVPCAssociationAuthorizationInput, optFns ...func(*route53.Options)) (*route53.CreateVPCAssociationAuthorizationOutput, error)
	DeleteVPCAssociationAuthorization(ctx context.Context, params *route53.DeleteVPCAssociationAuthorizationInput, optFns ...func(*route53.Options)) (*route53.DeleteVPCAssociationAuthorizationOutput, error)
}

// MemberZonesAPI is the member-account slice of Route 53: listing a VPC's
// associations and performing the association calls themselves.
type MemberZonesAPI interface {
	discovery.ZoneAssociationsAPI
	AssociateVPCWithHostedZone(ctx context.Context, params *route53.AssociateVPCWithHostedZoneInput, optFns ...func(*route53.Options)) (*route53.AssociateVPCWithHostedZoneOutput, error)
	DisassociateVPCFromHostedZone(ctx context.Context, params *route53.DisassociateVPCFromHostedZoneInput, optFns ...func(*route53.Options)) (*route53.DisassociateVPCFromHostedZoneOutput, error)
}

// Members bundles the clients built from one role assumption.
type Members struct {
	Zones MemberZonesAPI
	VPCs  discovery.VPCsAPI
}

// MemberFactory builds member-account clients from assumed-role credentials.
type MemberFactory func(ctx context.Context, cr aws.Credentials, region string) (Members, error)
