package model

import (
	"time"
)

const (
	RoleDonor        = "DONOR"        // 捐赠者
	RoleCompany      = "COMPANY"      // 企业
	RoleOrganization = "ORGANIZATION" // 公益组织
	RoleAdmin        = "ADMIN"        // 管理员
)

// ValidRoles 合法角色集合
var ValidRoles = map[string]bool{
	RoleDonor:        true,
	RoleCompany:      true,
	RoleOrganization: true,
	RoleAdmin:        true,
}

// Account 账号表
// 角色在创建时确定，之后不可修改（系统中没有修改角色的入口）
type Account struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email          string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Name           string    `gorm:"type:varchar(64);not null" json:"name"`       // 展示名（排行榜使用）
	CredentialHash string    `gorm:"type:varchar(128);not null" json:"-"`         // 凭证哈希，认证逻辑不在本系统内
	Role           string    `gorm:"type:varchar(20);index;not null" json:"role"` // 角色，创建后不可变
	Disabled       bool      `gorm:"not null;default:false" json:"disabled"`
	Verified       bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}

// ============================================================
// 角色档案：一条账号记录 + 按角色区分的档案记录
// 用 Profile 接口统一对外，避免继承式建模
// ============================================================

// Profile 角色档案的统一视图
type Profile interface {
	ProfileRole() string
}

// DonorProfile 捐赠者档案
type DonorProfile struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	Nickname  string    `gorm:"type:varchar(64)" json:"nickname"`
	Address   string    `gorm:"type:varchar(256)" json:"address"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DonorProfile) TableName() string {
	return "donor_profile"
}

func (DonorProfile) ProfileRole() string {
	return RoleDonor
}

// CompanyProfile 企业档案
type CompanyProfile struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID   int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	CompanyName string    `gorm:"type:varchar(128)" json:"company_name"`
	BusinessNo  string    `gorm:"type:varchar(64)" json:"business_no"` // 工商注册号
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CompanyProfile) TableName() string {
	return "company_profile"
}

func (CompanyProfile) ProfileRole() string {
	return RoleCompany
}

// OrganizationProfile 公益组织档案
type OrganizationProfile struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID   int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	OrgName     string    `gorm:"type:varchar(128)" json:"org_name"`
	Description string    `gorm:"type:varchar(512)" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OrganizationProfile) TableName() string {
	return "organization_profile"
}

func (OrganizationProfile) ProfileRole() string {
	return RoleOrganization
}
