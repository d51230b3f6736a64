// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package bridge

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/relabs-tech/wolkenio/connect"
	"github.com/relabs-tech/wolkenio/core/logger"
)

// SQSConfiguration configures the SQS forwarder. Access id and key are
// optional; without them the default AWS credential chain is used.
type SQSConfiguration struct {
	QueueURL  string `env:"SQS_QUEUE_URL,required" description:"the URL of the SQS queue"`
	AWSRegion string `env:"AWS_REGION,default=eu-central-1" description:"the AWS region of the queue"`
	AccessID  string `env:"AWS_ACCESS_ID,optional" description:"static AWS access key id"`
	AccessKey string `env:"AWS_ACCESS_KEY,optional" description:"static AWS secret access key"`
}

// SQSForwarder republishes coordinator events to an AWS SQS queue.
type SQSForwarder struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSForwarder creates a forwarder for the configured queue.
func NewSQSForwarder(sqsConfig SQSConfiguration) (*SQSForwarder, error) {
	options := []func(*config.LoadOptions) error{
		config.WithRegion(sqsConfig.AWSRegion),
	}
	if sqsConfig.AccessID != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sqsConfig.AccessID, sqsConfig.AccessKey, "")))
	}
	awsConfig, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugln("SQS forwarding enabled")
	return &SQSForwarder{
		client:   sqs.NewFromConfig(awsConfig),
		queueURL: sqsConfig.QueueURL,
	}, nil
}

// Attach registers the forwarder for all event kinds of the coordinator.
func (f *SQSForwarder) Attach(c *connect.Coordinator) {
	for _, kind := range allKinds {
		c.AddListener(kind, f.forward)
	}
}

func (f *SQSForwarder) forward(event connect.Event) {
	body, err := marshalEnvelope(event)
	if err != nil {
		logger.Default().WithError(err).Errorln("cannot marshal event envelope")
		return
	}
	_, err = f.client.SendMessage(context.TODO(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(f.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		logger.Default().WithError(err).
			WithField("device_id", event.DeviceID).
			Errorln("cannot forward event to sqs")
	}
}
