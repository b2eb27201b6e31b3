package dynamodb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dreschagin/event-gallery/internal/domain/repository"
)

const (
	maxPageLimit = 100

	attrPK          = "PK"
	attrSK          = "SK"
	attrFolder      = "folder"
	attrPublicID    = "public_id"
	attrObjectKey   = "object_key"
	attrURL         = "url"
	attrFileName    = "file_name"
	attrContentType = "content_type"
	attrSizeBytes   = "size_bytes"
	attrCreatedAt   = "created_at"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// dynamoAPI - подмножество клиента DynamoDB, которое использует индекс
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// PhotoIndex реализует repository.PhotoIndex поверх одной таблицы:
// PK = FOLDER#<folder>, SK = PHOTO#<public_id>, сортировка по SK дает порядок public id
type PhotoIndex struct {
	client      dynamoAPI
	tableName   string
	strongReads bool
}

type cursorPayload struct {
	Folder string                 `json:"folder"`
	Key    map[string]cursorValue `json:"key"`
}

type cursorValue struct {
	S string `json:"s,omitempty"`
	N string `json:"n,omitempty"`
}

func NewPhotoIndex(ctx context.Context, cfg Config) (*PhotoIndex, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return newPhotoIndex(client, strings.TrimSpace(cfg.TableName), cfg.StrongReads), nil
}

func newPhotoIndex(client dynamoAPI, tableName string, strongReads bool) *PhotoIndex {
	return &PhotoIndex{
		client:      client,
		tableName:   tableName,
		strongReads: strongReads,
	}
}

// Put записывает запись с условием отсутствия ключа
func (r *PhotoIndex) Put(ctx context.Context, record repository.PhotoRecord) error {
	item, err := toItem(record)
	if err != nil {
		return err
	}

	condition := "attribute_not_exists(#pk)"
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                &r.tableName,
		Item:                     item,
		ConditionExpression:      &condition,
		ExpressionAttributeNames: map[string]string{"#pk": attrPK},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return repository.ErrPhotoExists
		}
		return fmt.Errorf("dynamodb put item failed: %w", err)
	}

	return nil
}

func (r *PhotoIndex) Exists(ctx context.Context, folder, publicID string) (bool, error) {
	projection := "#pk"
	output, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.tableName,
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: buildPK(folder)},
			attrSK: &types.AttributeValueMemberS{Value: buildSK(publicID)},
		},
		ConsistentRead:           boolPointer(true),
		ProjectionExpression:     &projection,
		ExpressionAttributeNames: map[string]string{"#pk": attrPK},
	})
	if err != nil {
		return false, fmt.Errorf("dynamodb get item failed: %w", err)
	}
	return len(output.Item) > 0, nil
}

// Page читает записи папки по убыванию SK
func (r *PhotoIndex) Page(ctx context.Context, query repository.PhotoPageQuery) (repository.PhotoRecordPage, error) {
	folder := strings.TrimSpace(query.Folder)
	if folder == "" {
		return repository.PhotoRecordPage{}, fmt.Errorf("folder is required")
	}

	limit := query.Limit
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}

	keyCondition := "#pk = :pk"
	input := &dynamodb.QueryInput{
		TableName:              &r.tableName,
		Limit:                  int32Pointer(int32(limit)),
		ScanIndexForward:       boolPointer(false),
		ConsistentRead:         boolPointer(r.strongReads),
		KeyConditionExpression: &keyCondition,
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(folder)},
		},
	}

	if strings.TrimSpace(query.Cursor) != "" {
		exclusiveStartKey, err := decodeCursor(query.Cursor, folder)
		if err != nil {
			return repository.PhotoRecordPage{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return repository.PhotoRecordPage{}, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]repository.PhotoRecord, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return repository.PhotoRecordPage{}, err
		}
		items = append(items, item)
	}

	nextCursor := ""
	if len(output.LastEvaluatedKey) > 0 {
		nextCursor, err = encodeCursor(output.LastEvaluatedKey, folder)
		if err != nil {
			return repository.PhotoRecordPage{}, err
		}
	}

	return repository.PhotoRecordPage{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

// Count считает записи папки через Select COUNT, проходя все страницы ответа
func (r *PhotoIndex) Count(ctx context.Context, folder string) (int, error) {
	keyCondition := "#pk = :pk"
	input := &dynamodb.QueryInput{
		TableName:                &r.tableName,
		Select:                   types.SelectCount,
		KeyConditionExpression:   &keyCondition,
		ExpressionAttributeNames: map[string]string{"#pk": attrPK},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: buildPK(strings.TrimSpace(folder))},
		},
	}

	total := 0
	for {
		output, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("dynamodb count query failed: %w", err)
		}
		total += int(output.Count)
		if len(output.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}

// Ping проверяет доступность таблицы для readiness probe
func (r *PhotoIndex) Ping(ctx context.Context) error {
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &r.tableName}); err != nil {
		return fmt.Errorf("describe table %s: %w", r.tableName, err)
	}
	return nil
}

func toItem(record repository.PhotoRecord) (map[string]types.AttributeValue, error) {
	folder := strings.TrimSpace(record.Folder)
	publicID := strings.TrimSpace(record.PublicID)
	objectKey := strings.TrimSpace(record.ObjectKey)
	if folder == "" {
		return nil, fmt.Errorf("folder is required")
	}
	if publicID == "" {
		return nil, fmt.Errorf("public_id is required")
	}
	if objectKey == "" {
		return nil, fmt.Errorf("object_key is required")
	}

	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	item := map[string]types.AttributeValue{
		attrPK:        &types.AttributeValueMemberS{Value: buildPK(folder)},
		attrSK:        &types.AttributeValueMemberS{Value: buildSK(publicID)},
		attrFolder:    &types.AttributeValueMemberS{Value: folder},
		attrPublicID:  &types.AttributeValueMemberS{Value: publicID},
		attrObjectKey: &types.AttributeValueMemberS{Value: objectKey},
		attrCreatedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(createdAt.UnixMilli(), 10)},
	}

	if url := strings.TrimSpace(record.URL); url != "" {
		item[attrURL] = &types.AttributeValueMemberS{Value: url}
	}
	if fileName := strings.TrimSpace(record.FileName); fileName != "" {
		item[attrFileName] = &types.AttributeValueMemberS{Value: fileName}
	}
	if contentType := strings.TrimSpace(record.ContentType); contentType != "" {
		item[attrContentType] = &types.AttributeValueMemberS{Value: contentType}
	}
	if record.SizeBytes > 0 {
		item[attrSizeBytes] = &types.AttributeValueMemberN{Value: strconv.FormatInt(record.SizeBytes, 10)}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (repository.PhotoRecord, error) {
	folder, err := attrString(item, attrFolder)
	if err != nil {
		return repository.PhotoRecord{}, err
	}
	publicID, err := attrString(item, attrPublicID)
	if err != nil {
		return repository.PhotoRecord{}, err
	}
	objectKey, err := attrString(item, attrObjectKey)
	if err != nil {
		return repository.PhotoRecord{}, err
	}
	createdAtMS, err := attrInt64(item, attrCreatedAt)
	if err != nil {
		return repository.PhotoRecord{}, err
	}

	return repository.PhotoRecord{
		PublicID:    publicID,
		Folder:      folder,
		ObjectKey:   objectKey,
		URL:         optionalString(item, attrURL),
		FileName:    optionalString(item, attrFileName),
		ContentType: optionalString(item, attrContentType),
		SizeBytes:   optionalInt64(item, attrSizeBytes),
		CreatedAt:   time.UnixMilli(createdAtMS).UTC(),
	}, nil
}

func buildPK(folder string) string {
	return "FOLDER#" + folder
}

func buildSK(publicID string) string {
	return "PHOTO#" + publicID
}

// encodeCursor сериализует LastEvaluatedKey; курсор привязан к папке
func encodeCursor(key map[string]types.AttributeValue, folder string) (string, error) {
	values := make(map[string]cursorValue, len(key))
	for attributeName, raw := range key {
		switch value := raw.(type) {
		case *types.AttributeValueMemberS:
			values[attributeName] = cursorValue{S: value.Value}
		case *types.AttributeValueMemberN:
			values[attributeName] = cursorValue{N: value.Value}
		default:
			return "", fmt.Errorf("unsupported cursor attribute type for %s", attributeName)
		}
	}

	serialized, err := json.Marshal(cursorPayload{Folder: folder, Key: values})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

func decodeCursor(cursor, folder string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, repository.ErrInvalidCursor
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, repository.ErrInvalidCursor
	}

	if payload.Folder != folder || len(payload.Key) == 0 {
		return nil, fmt.Errorf("%w: cursor does not match folder", repository.ErrInvalidCursor)
	}

	key := make(map[string]types.AttributeValue, len(payload.Key))
	for attributeName, value := range payload.Key {
		if value.S != "" {
			key[attributeName] = &types.AttributeValueMemberS{Value: value.S}
			continue
		}
		if value.N != "" {
			key[attributeName] = &types.AttributeValueMemberN{Value: value.N}
			continue
		}
		return nil, repository.ErrInvalidCursor
	}

	return key, nil
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	value, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64(item map[string]types.AttributeValue, name string) int64 {
	value, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}
