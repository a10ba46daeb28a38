package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"zonevpcsync/catalog"
	"zonevpcsync/config"
	"zonevpcsync/creds"
	"zonevpcsync/discovery"
	"zonevpcsync/filter"
	"zonevpcsync/metrics"
)

type Engine struct {
	loader      *catalog.Loader
	owner       OwnerZonesAPI
	sts         creds.AssumeRoleAPI
	members     MemberFactory
	metrics     *metrics.Metrics
	dryRun      bool
	tagKey      string
	sessionName string
}

func NewEngine(loader *catalog.Loader, owner OwnerZonesAPI, sts creds.AssumeRoleAPI, members MemberFactory, m *metrics.Metrics, cfg *config.Config) *Engine {
	return &Engine{
		loader:      loader,
		owner:       owner,
		sts:         sts,
		members:     members,
		metrics:     m,
		dryRun:      cfg.Reconcile.DryRun,
		tagKey:      config.ReconcileTagKey,
		sessionName: config.SessionName,
	}
}

// Run performs one reconciliation pass. Catalog load, role assumption and
// VPC listing failures are fatal; everything per-VPC is recorded in the
// report and swallowed so one misconfigured VPC cannot block the rest.
func (e *Engine) Run(ctx context.Context, input Input) (*RunReport, error) {
	zones, err := e.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load zone catalog: %w", err)
	}

	cr, err := creds.AssumeMemberRole(ctx, e.sts, input.RoleArn, e.sessionName)
	if err != nil {
		return nil, err
	}

	members, err := e.members(ctx, cr, input.Region)
	if err != nil {
		return nil, fmt.Errorf("build member clients: %w", err)
	}

	vpcs, err := discovery.ListTaggedVPCs(ctx, members.VPCs, e.tagKey)
	if err != nil {
		return nil, err
	}
	slog.Info("Reconciling VPCs", "count", len(vpcs), "region", input.Region)

	report := &RunReport{Zones: zones}
	for _, vpc := range vpcs {
		outcome := e.reconcileVPC(ctx, members.Zones, vpc, input.Region, zones)
		if outcome.Err != nil {
			slog.Error("VPC reconcile failed", "vpc", vpc.ID, "region", input.Region, "error", outcome.Err)
			e.metrics.IncVPCReconcile(false)
		} else {
			e.metrics.IncVPCReconcile(true)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

// reconcileVPC converges one VPC. The first error aborts the remainder of
// this VPC's batch; operations already applied stand, and the next run
// recomputes the full diff from live state.
func (e *Engine) reconcileVPC(ctx context.Context, member MemberZonesAPI, vpc discovery.VPC, region string, zones []catalog.Zone) Outcome {
	out := Outcome{VPCID: vpc.ID}

	desired, err := filter.Resolve(zones, vpc.Tags[e.tagKey])
	if err != nil {
		out.Err = err
		return out
	}

	actual, err := discovery.ListAssociatedZones(ctx, member, vpc.ID, region)
	if err != nil {
		out.Err = err
		return out
	}

	toAdd, toRemove := diff(desired, actual)
	slog.Debug("Computed association diff", "vpc", vpc.ID, "desired", desired, "actual", actual, "add", toAdd, "remove", toRemove)

	if e.dryRun {
		slog.Info("Dry run mode - would associate and disassociate zones", "vpc", vpc.ID, "associate", toAdd, "disassociate", toRemove)
		out.Added = toAdd
		out.Removed = toRemove
		return out
	}

	for _, zoneID := range toAdd {
		if err := e.associate(ctx, member, zoneID, vpc.ID, region); err != nil {
			out.Err = err
			return out
		}
		out.Added = append(out.Added, zoneID)
	}

	for _, zoneID := range toRemove {
		if err := e.disassociate(ctx, member, zoneID, vpc.ID, region); err != nil {
			out.Err = err
			return out
		}
		out.Removed = append(out.Removed, zoneID)
	}
	return out
}

// associate runs the cross-account handshake: the owner authorizes the
// member VPC, the member attaches, the owner revokes the single-use grant.
// Revocation only happens after a successful attach. A grant left behind by
// a failed revoke is harmless; the next run retries or it expires.
func (e *Engine) associate(ctx context.Context, member MemberZonesAPI, zoneID, vpcID, region string) error {
	vpc := &types.VPC{
		VPCId:     aws.String(vpcID),
		VPCRegion: types.VPCRegion(region),
	}

	slog.Info("Associating zone with VPC", "zone", zoneID, "vpc", vpcID, "region", region)

	_, err := e.owner.CreateVPCAssociationAuthorization(ctx, &route53.CreateVPCAssociationAuthorizationInput{
		HostedZoneId: aws.String(zoneID),
		VPC:          vpc,
	})
	if err != nil {
		e.metrics.IncAssociationOp("authorize", false)
		return fmt.Errorf("authorize association of zone %s with vpc %s: %w", zoneID, vpcID, err)
	}
	e.metrics.IncAssociationOp("authorize", true)

	_, err = member.AssociateVPCWithHostedZone(ctx, &route53.AssociateVPCWithHostedZoneInput{
		HostedZoneId: aws.String(zoneID),
		VPC:          vpc,
	})
	if err != nil {
		e.metrics.IncAssociationOp("associate", false)
		return fmt.Errorf("associate zone %s with vpc %s: %w", zoneID, vpcID, err)
	}
	e.metrics.IncAssociationOp("associate", true)

	_, err = e.owner.DeleteVPCAssociationAuthorization(ctx, &route53.DeleteVPCAssociationAuthorizationInput{
		HostedZoneId: aws.String(zoneID),
		VPC:          vpc,
	})
	if err != nil {
		e.metrics.IncAssociationOp("revoke", false)
		return fmt.Errorf("revoke association authorization of zone %s with vpc %s: %w", zoneID, vpcID, err)
	}
	e.metrics.IncAssociationOp("revoke", true)
	return nil
}

// disassociate needs no authorization grant; it is a single member call.
func (e *Engine) disassociate(ctx context.Context, member MemberZonesAPI, zoneID, vpcID, region string) error {
	slog.Info("Disassociating zone from VPC", "zone", zoneID, "vpc", vpcID, "region", region)

	_, err := member.DisassociateVPCFromHostedZone(ctx, &route53.DisassociateVPCFromHostedZoneInput{
		HostedZoneId: aws.String(zoneID),
		VPC: &types.VPC{
			VPCId:     aws.String(vpcID),
			VPCRegion: types.VPCRegion(region),
		},
	})
	if err != nil {
		e.metrics.IncAssociationOp("disassociate", false)
		return fmt.Errorf("disassociate zone %s from vpc %s: %w", zoneID, vpcID, err)
	}
	e.metrics.IncAssociationOp("disassociate", true)
	return nil
}

// diff returns desired−actual and actual−desired, sorted for deterministic
// application order.
func diff(desired, actual []string) (toAdd, toRemove []string) {
	desiredSet := make(map[string]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
	}
	actualSet := make(map[string]bool, len(actual))
	for _, id := range actual {
		actualSet[id] = true
	}

	for id := range desiredSet {
		if !actualSet[id] {
			toAdd = append(toAdd, id)
		}
	}
	for id := range actualSet {
		if !desiredSet[id] {
			toRemove = append(toRemove, id)
		}
	}
	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return toAdd, toRemove
}
