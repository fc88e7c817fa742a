package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 使用场景：
//   - Store 错误：UNAVAILABLE（存储不可达/超时）
//   - 请求错误：INVALID_INPUT
//   - 其他内部错误：INTERNAL_ERROR
//
// 注意：not-found 不是错误。种子商品或用户不存在时，所有打分器返回空列表。
type DomainError struct {
	Code    string // 错误代码（如 "UNAVAILABLE", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "graph"）
	Err     error  // 底层原因（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 按 Module + Code 比较，便于使用 errors.Is 匹配哨兵错误。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Module == "" || e.Module == t.Module)
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建带底层原因的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GetDomainError 沿错误链查找 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 存储/服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleCatalog     = "catalog"     // 商品目录
	ModuleInteraction = "interaction" // 行为日志
	ModuleGraph       = "graph"       // 共购图
	ModuleOrder       = "order"       // 订单
	ModuleTrending    = "trending"    // 热门榜
	ModuleRecall      = "recall"      // 打分器
	ModuleService     = "service"     // 服务层
	ModuleServer      = "server"      // HTTP 接入层
)

// ErrStoreUnavailable 把存储驱动的错误包装成 UNAVAILABLE。
func ErrStoreUnavailable(module string, err error) error {
	if err == nil {
		return nil
	}
	return WrapDomainError(module, ErrorCodeUnavailable, module+": store unavailable", err)
}

// ErrInvalidInput 构造 INVALID_INPUT 错误。
func ErrInvalidInput(module, message string) error {
	return NewDomainError(module, ErrorCodeInvalidInput, message)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}
