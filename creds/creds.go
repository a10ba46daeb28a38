// Package creds exchanges the member account's role for temporary
// credentials. Credentials are scoped to one run and never cached.
package creds

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type AssumeRoleAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// AssumeMemberRole performs a single sts:AssumeRole call. Failure is fatal to
// the run; without member credentials nothing can be reconciled.
func AssumeMemberRole(ctx context.Context, api AssumeRoleAPI, roleArn, sessionName string) (aws.Credentials, error) {
	out, err := api.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleArn),
		RoleSessionName: aws.String(sessionName),
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("assume role %s: %w", roleArn, err)
	}
	if out.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("assume role %s: empty credentials", roleArn)
	}

	cr := aws.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Source:          sessionName,
	}
	if out.Credentials.Expiration != nil {
		cr.CanExpire = true
		cr.Expires = *out.Credentials.Expiration
	}
	return cr, nil
}
