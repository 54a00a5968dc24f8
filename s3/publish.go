// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package s3 publishes the output tables to an S3 bucket.
package s3

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// PubOption is a functional option type for Publisher.
type PubOption func(p *Publisher)

// OptPubPrefix sets the key prefix every object is uploaded under.
func OptPubPrefix(prefix string) PubOption {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// OptPubRegion sets the AWS region.
func OptPubRegion(region string) PubOption {
	return func(p *Publisher) {
		p.region = region
	}
}

// OptPubConcurrency sets the number of files uploaded at once.
func OptPubConcurrency(n int) PubOption {
	return func(p *Publisher) {
		p.concurrency = n
	}
}

// OptPubLogger sets the logger.
func OptPubLogger(log cinetl.Logger) PubOption {
	return func(p *Publisher) {
		p.log = log
	}
}

// OptPubUploader replaces the uploader, which otherwise comes from a new AWS
// session.
func OptPubUploader(u s3manageriface.UploaderAPI) PubOption {
	return func(p *Publisher) {
		p.uploader = u
	}
}

// Publisher uploads the CSV tables of a directory to S3.
type Publisher struct {
	bucket      string
	prefix      string
	region      string
	concurrency int

	uploader s3manageriface.UploaderAPI
	log      cinetl.Logger
}

// NewPublisher returns a Publisher for bucket with the options applied.
func NewPublisher(bucket string, opts ...PubOption) (*Publisher, error) {
	if bucket == "" {
		return nil, errors.New("no bucket")
	}
	p := &Publisher{
		bucket:      bucket,
		region:      "us-east-1",
		concurrency: 4,
		log:         cinetl.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	if p.uploader == nil {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(p.region)},
		)
		if err != nil {
			return nil, errors.Wrap(err, "getting aws session")
		}
		p.uploader = s3manager.NewUploader(sess)
	}
	return p, nil
}

// Object is one file to upload and the key it is uploaded to.
type Object struct {
	Path string
	Key  string
	Size int64
}

// Objects lists every .csv file under dir, sorted by key. Keys are the
// slash separated paths relative to dir, under prefix.
func Objects(dir, prefix string) ([]Object, error) {
	var objs []Object
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(p) != ".csv" {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		objs = append(objs, Object{
			Path: p,
			Key:  path.Join(prefix, filepath.ToSlash(rel)),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

// Publish uploads every table under dir. The first failed upload cancels
// the rest.
func (p *Publisher) Publish(ctx context.Context, dir string, stats *cinetl.Stats) error {
	objs, err := Objects(dir, p.prefix)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		return errors.Errorf("no tables under %s", dir)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for _, obj := range objs {
		obj := obj
		eg.Go(func() error {
			return p.upload(ctx, obj, stats)
		})
	}
	return eg.Wait()
}

func (p *Publisher) upload(ctx context.Context, obj Object, stats *cinetl.Stats) error {
	f, err := os.Open(obj.Path)
	if err != nil {
		return errors.Wrap(err, "opening table")
	}
	defer f.Close()
	_, err = p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(obj.Key),
		Body:        f,
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return errors.Wrapf(err, "uploading %s to s3://%s/%s", obj.Path, p.bucket, obj.Key)
	}
	stats.Inc("publish", "uploaded")
	stats.Add("publish", "bytes", obj.Size)
	p.log.Debugf("uploaded s3://%s/%s", p.bucket, obj.Key)
	return nil
}
