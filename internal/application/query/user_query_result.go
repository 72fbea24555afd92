package query

import "ecodescarte-user-service/internal/application/common"

type UserQueryResult struct {
	Result *common.UserResult `json:"user"`
}
