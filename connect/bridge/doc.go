// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package bridge forwards coordinator events to external message brokers

Fleet backends rarely want to consume device events in-process. The bridge
attaches to a connect.Coordinator and republishes every dispatched event as
a JSON envelope, either to a Kafka topic keyed by device id, or to an AWS
SQS queue.
*/
package bridge
