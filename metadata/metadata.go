// Package metadata looks up descriptive fields for MIDI files so exported
// rows can be labelled.
package metadata

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/jsphweid/stylerank/model"
)

// Columns are the metadata fields in export order.
var Columns = []string{"artist", "release", "title", "year"}

// Row renders m in Columns order.
func Row(m model.MidiMetadata) []string {
	year := ""
	if m.Year != 0 {
		year = strconv.FormatUint(uint64(m.Year), 10)
	}
	return []string{m.Artist, m.Release, m.Title, year}
}

// Source resolves paths to metadata. Paths without metadata are absent
// from the result.
type Source interface {
	Lookup(ctx context.Context, paths []string) (map[string]model.MidiMetadata, error)
}

// StaticSource serves metadata from memory.
type StaticSource map[string]model.MidiMetadata

func (s StaticSource) Lookup(_ context.Context, paths []string) (map[string]model.MidiMetadata, error) {
	res := make(map[string]model.MidiMetadata)
	for _, p := range paths {
		if m, ok := s[p]; ok {
			res[p] = m
		}
	}
	return res, nil
}

// maxBatchKeys is the BatchGetItem key limit.
const maxBatchKeys = 100

// DynamoSource reads items keyed by path from a DynamoDB table with
// partition key PK.
type DynamoSource struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func NewDynamoSource(client dynamodbiface.DynamoDBAPI, table string) *DynamoSource {
	return &DynamoSource{client: client, table: table}
}

// NewLocalDynamoSource connects to a DynamoDB endpoint such as
// http://localhost:8000.
func NewLocalDynamoSource(endpoint, region, table string) (*DynamoSource, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(region),
		Endpoint: aws.String(endpoint),
	})
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return NewDynamoSource(dynamodb.New(sess), table), nil
}

func (s *DynamoSource) Lookup(ctx context.Context, paths []string) (map[string]model.MidiMetadata, error) {
	res := make(map[string]model.MidiMetadata)
	for start := 0; start < len(paths); start += maxBatchKeys {
		end := start + maxBatchKeys
		if end > len(paths) {
			end = len(paths)
		}

		var keys []map[string]*dynamodb.AttributeValue
		for _, p := range paths[start:end] {
			keys = append(keys, map[string]*dynamodb.AttributeValue{
				"PK": {S: aws.String(p)},
			})
		}

		request := map[string]*dynamodb.KeysAndAttributes{
			s.table: {Keys: keys},
		}
		// unprocessed keys are retried until the table hands everything back
		for len(request) > 0 {
			out, err := s.client.BatchGetItemWithContext(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, errors.WithStackTrace(err)
			}
			for _, item := range out.Responses[s.table] {
				if pk, ok := item["PK"]; ok && pk.S != nil {
					res[*pk.S] = fromItem(item)
				}
			}
			request = out.UnprocessedKeys
		}
	}
	return res, nil
}

func fromItem(item map[string]*dynamodb.AttributeValue) model.MidiMetadata {
	var m model.MidiMetadata
	if v, ok := item["Year"]; ok && v.N != nil {
		year, _ := strconv.ParseUint(*v.N, 10, 32)
		m.Year = uint(year)
	}
	m.Artist = stringAttr(item, "Artist")
	m.Release = stringAttr(item, "Release")
	m.Title = stringAttr(item, "Title")
	return m
}

func stringAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if v, ok := item[name]; ok && v.S != nil {
		return *v.S
	}
	return ""
}
